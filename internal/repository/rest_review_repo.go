package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/hitoshi/foodiefinds/internal/apiclient"
	"github.com/hitoshi/foodiefinds/internal/model"
)

// RestReviewRepo はリモートストアのREST APIを使用したレビューリポジトリ。
type RestReviewRepo struct {
	client *apiclient.Client
}

// NewRestReviewRepo はRestReviewRepoを生成する。
func NewRestReviewRepo(client *apiclient.Client) *RestReviewRepo {
	return &RestReviewRepo{client: client}
}

// List はレビュー一覧を取得する。空のsearchTermは全件（新着順）を返す。
func (r *RestReviewRepo) List(ctx context.Context, searchTerm string) ([]model.Review, error) {
	path := "/api/reviews"
	if searchTerm != "" {
		path += "?search=" + url.QueryEscape(searchTerm)
	}

	var reviews []model.Review
	if err := r.client.Get(ctx, path, &reviews); err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// Get は指定IDのレビューを取得する。
func (r *RestReviewRepo) Get(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	if err := r.client.Get(ctx, "/api/reviews/"+url.PathEscape(id), &review); err != nil {
		if model.IsCode(err, model.ErrCodeNotFound) {
			return nil, model.NewNotFoundError(id)
		}
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	return &review, nil
}

// ListByOwner は指定所有者のレビュー一覧を取得する。
func (r *RestReviewRepo) ListByOwner(ctx context.Context, ownerEmail string) ([]model.Review, error) {
	var reviews []model.Review
	if err := r.client.Get(ctx, "/api/reviews/user/"+url.PathEscape(ownerEmail), &reviews); err != nil {
		return nil, fmt.Errorf("自分のレビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// ListFeatured は評価上位のレビューを取得する。
func (r *RestReviewRepo) ListFeatured(ctx context.Context) ([]model.Review, error) {
	var reviews []model.Review
	if err := r.client.Get(ctx, "/api/reviews/featured", &reviews); err != nil {
		return nil, fmt.Errorf("注目レビューの取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// createRequest はレビュー作成のリクエストボディ。
// 所有者属性はセッションのIdentityから転記する。
type createRequest struct {
	model.ReviewPayload
	OwnerEmail    string    `json:"userEmail"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerPhoto string    `json:"reviewerPhoto"`
	PostedAt      time.Time `json:"postedDate"`
}

// Create はレビューを新規作成する。
// 検証エラーはリモート呼び出しの前に返される。
func (r *RestReviewRepo) Create(ctx context.Context, payload model.ReviewPayload, owner *model.Identity) (*model.Review, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	body := createRequest{
		ReviewPayload: payload,
		OwnerEmail:    owner.Email,
		ReviewerName:  owner.DisplayName,
		ReviewerPhoto: owner.PhotoURL,
		PostedAt:      time.Now().UTC(),
	}

	var created model.Review
	if err := r.client.Post(ctx, "/api/reviews", body, &created, owner.Email); err != nil {
		if errors.Is(err, apiclient.ErrBadRequest) {
			return nil, model.NewValidationError("ストアがレビュー内容を受理しませんでした")
		}
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}
	return &created, nil
}

// Update は指定IDのレビューを更新する。
func (r *RestReviewRepo) Update(ctx context.Context, id string, payload model.ReviewPayload, requesterEmail string) (*model.Review, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var updated model.Review
	err := r.client.Put(ctx, "/api/reviews/"+url.PathEscape(id), payload, &updated, requesterEmail)
	if err != nil {
		if errors.Is(err, apiclient.ErrBadRequest) {
			return nil, model.NewValidationError("ストアがレビュー内容を受理しませんでした")
		}
		return nil, fmt.Errorf("レビューの更新に失敗しました: %w", err)
	}
	return &updated, nil
}

// Delete は指定IDのレビューを削除する。
func (r *RestReviewRepo) Delete(ctx context.Context, id, requesterEmail string) error {
	if err := r.client.Delete(ctx, "/api/reviews/"+url.PathEscape(id), requesterEmail); err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReviewRepository = (*RestReviewRepo)(nil)
