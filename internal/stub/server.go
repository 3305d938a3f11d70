package stub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodiefinds/internal/apiclient"
	"github.com/hitoshi/foodiefinds/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Server はインメモリストアを公開するHTTPサーバー。
type Server struct {
	store  *MemoryStore
	logger *slog.Logger
}

// NewServer はServerを生成する。
func NewServer(store *MemoryStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, logger: logger}
}

// Router は全APIエンドポイントのルーティングを構成したchi.Routerを返す。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.health)

	r.Route("/api/reviews", func(r chi.Router) {
		r.Get("/", s.listReviews)
		r.Post("/", s.createReview)
		r.Get("/featured", s.listFeatured)
		r.Get("/user/{email}", s.listReviewsByOwner)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getReview)
			r.Put("/", s.updateReview)
			r.Delete("/", s.deleteReview)
		})
	})

	r.Route("/api/favorites", func(r chi.Router) {
		r.Post("/", s.addFavorite)
		r.Get("/{email}", s.listFavorites)
		r.Delete("/{id}", s.removeFavorite)
	})

	r.Post("/api/users", s.upsertProfile)

	return r
}

// health はヘルスチェック応答を返す。
// GET /healthz
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listReviews はレビュー一覧を返す。
// GET /api/reviews?search=
func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews := s.store.ListReviews(r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, reviews)
}

// listFeatured は評価上位のレビューを返す。
// GET /api/reviews/featured
func (s *Server) listFeatured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListFeaturedReviews())
}

// listReviewsByOwner は指定所有者のレビュー一覧を返す。
// GET /api/reviews/user/:email
func (s *Server) listReviewsByOwner(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	writeJSON(w, http.StatusOK, s.store.ListReviewsByOwner(email))
}

// getReview はレビュー詳細を返す。
// GET /api/reviews/:id
func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	review, ok := s.store.GetReview(id)
	if !ok {
		writeAPIError(w, http.StatusNotFound, model.NewNotFoundError(id))
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// createReview はレビューを登録する。
// POST /api/reviews
func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var review model.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeAPIError(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	payload := model.ReviewPayload{
		FoodName:       review.FoodName,
		FoodImage:      review.FoodImage,
		RestaurantName: review.RestaurantName,
		Location:       review.Location,
		Rating:         review.Rating,
		ReviewText:     review.ReviewText,
	}
	if err := payload.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.(*model.APIError))
		return
	}
	if review.OwnerEmail == "" {
		writeAPIError(w, http.StatusBadRequest, model.NewValidationError("userEmailは必須です"))
		return
	}

	created := s.store.CreateReview(review)
	s.logger.Info("レビューを登録しました",
		slog.String("review_id", created.ID),
		slog.String("owner", created.OwnerEmail),
	)
	writeJSON(w, http.StatusCreated, created)
}

// updateReview はレビューを更新する。
// 所有者チェックはX-Requester-Emailヘッダーに基づいて行う。
// PUT /api/reviews/:id
func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requester := r.Header.Get(apiclient.RequesterHeader)

	var payload model.ReviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}
	if err := payload.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.(*model.APIError))
		return
	}

	updated, result := s.store.UpdateReview(id, requester, payload)
	if !s.writeStoreResult(w, result, id) {
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// deleteReview はレビューを削除する。
// DELETE /api/reviews/:id
func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requester := r.Header.Get(apiclient.RequesterHeader)

	result := s.store.DeleteReview(id, requester)
	if !s.writeStoreResult(w, result, id) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// listFavorites は指定所有者のお気に入り一覧を返す。
// GET /api/favorites/:email
func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	writeJSON(w, http.StatusOK, s.store.ListFavorites(email))
}

// addFavorite はお気に入りを登録する。重複登録は400を返す。
// POST /api/favorites
func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	var favorite model.Favorite
	if err := json.NewDecoder(r.Body).Decode(&favorite); err != nil {
		writeAPIError(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}
	if favorite.OwnerEmail == "" || favorite.ReviewID == "" {
		writeAPIError(w, http.StatusBadRequest, model.NewValidationError("userEmailとreviewIdは必須です"))
		return
	}

	created, result := s.store.AddFavorite(favorite)
	if result == ResultDuplicate {
		writeAPIError(w, http.StatusBadRequest, model.NewDuplicateFavoriteError())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// removeFavorite はお気に入りを解除する。
// DELETE /api/favorites/:id
func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requester := r.Header.Get(apiclient.RequesterHeader)

	result := s.store.RemoveFavorite(id, requester)
	if !s.writeStoreResult(w, result, id) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// upsertProfile はプロフィールスナップショットを保存する。
// POST /api/users
func (s *Server) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var profile model.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeAPIError(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}
	if profile.Email == "" {
		writeAPIError(w, http.StatusBadRequest, model.NewValidationError("emailは必須です"))
		return
	}
	s.store.UpsertProfile(profile)
	writeJSON(w, http.StatusOK, profile)
}

// writeStoreResult はストア操作のエラー結果をHTTP応答へ変換する。
// 成功の場合はtrueを返し、応答は書き込まない。
func (s *Server) writeStoreResult(w http.ResponseWriter, result StoreResult, id string) bool {
	switch result {
	case ResultNotFound:
		writeAPIError(w, http.StatusNotFound, model.NewNotFoundError(id))
		return false
	case ResultForbidden:
		writeAPIError(w, http.StatusForbidden, model.NewForbiddenError())
		return false
	default:
		return true
	}
}

// writeJSON はJSON応答を書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeAPIError は統一エラーフォーマットでエラー応答を書き込む。
func writeAPIError(w http.ResponseWriter, status int, apiErr *model.APIError) {
	writeJSON(w, status, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// ListenAndServe は指定アドレスでストアAPIを起動する。
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("スタブストアを起動します", slog.String("addr", addr))
	return server.ListenAndServe()
}
