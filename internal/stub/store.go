// Package stub はリモートストアAPIのインメモリ実装を提供する。
// ローカル開発と結合テストで、実サービスの代わりに
// レビュー・お気に入り・プロフィールの永続化APIを模倣する。
package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodiefinds/internal/model"
)

// featuredLimit は注目レビューとして返す最大件数。
const featuredLimit = 6

// MemoryStore はレビュー・お気に入り・プロフィールのインメモリストア。
// 全操作はミューテックスで直列化され、お気に入りの一意性は
// 同時追加に対しても原子的に保証される。
type MemoryStore struct {
	mu        sync.Mutex
	reviews   []model.Review
	favorites []model.Favorite
	profiles  map[string]model.Profile
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]model.Profile),
	}
}

// ListReviews はレビュー一覧を新着順で返す。
// searchTermが非空の場合、foodNameに対する大文字小文字を
// 区別しない部分一致で絞り込む。
func (s *MemoryStore) ListReviews(searchTerm string) []model.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Review, 0, len(s.reviews))
	needle := strings.ToLower(searchTerm)
	for _, r := range s.reviews {
		if needle != "" && !strings.Contains(strings.ToLower(r.FoodName), needle) {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PostedAt.After(result[j].PostedAt)
	})
	return result
}

// ListReviewsByOwner は指定所有者のレビュー一覧を新着順で返す。
func (s *MemoryStore) ListReviewsByOwner(ownerEmail string) []model.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Review, 0)
	for _, r := range s.reviews {
		if r.OwnerEmail == ownerEmail {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PostedAt.After(result[j].PostedAt)
	})
	return result
}

// ListFeaturedReviews は評価上位のレビューを最大featuredLimit件返す。
// 同評価の場合は新着順。
func (s *MemoryStore) ListFeaturedReviews() []model.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Review, len(s.reviews))
	copy(result, s.reviews)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Rating != result[j].Rating {
			return result[i].Rating > result[j].Rating
		}
		return result[i].PostedAt.After(result[j].PostedAt)
	})
	if len(result) > featuredLimit {
		result = result[:featuredLimit]
	}
	return result
}

// GetReview は指定IDのレビューを返す。存在しない場合はfalse。
func (s *MemoryStore) GetReview(id string) (model.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reviews {
		if r.ID == id {
			return r, true
		}
	}
	return model.Review{}, false
}

// CreateReview はレビューを登録する。IDを採番し、
// 投稿日時が未指定の場合は現在時刻を付与する。
func (s *MemoryStore) CreateReview(review model.Review) model.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	review.ID = uuid.NewString()
	if review.PostedAt.IsZero() {
		review.PostedAt = time.Now().UTC()
	}
	s.reviews = append(s.reviews, review)
	return review
}

// UpdateReview は指定IDのレビューを更新する。
// 所有者・投稿日時・IDは変更されない。
// 戻り値はリモートストアのエラー分類に対応する:
// 存在しない場合はnotFound、requesterが所有者でない場合はforbidden。
func (s *MemoryStore) UpdateReview(id, requesterEmail string, payload model.ReviewPayload) (model.Review, StoreResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.reviews {
		if r.ID != id {
			continue
		}
		if r.OwnerEmail != requesterEmail {
			return model.Review{}, ResultForbidden
		}
		r.FoodName = payload.FoodName
		r.FoodImage = payload.FoodImage
		r.RestaurantName = payload.RestaurantName
		r.Location = payload.Location
		r.Rating = payload.Rating
		r.ReviewText = payload.ReviewText
		s.reviews[i] = r
		return r, ResultOK
	}
	return model.Review{}, ResultNotFound
}

// DeleteReview は指定IDのレビューを削除する。
func (s *MemoryStore) DeleteReview(id, requesterEmail string) StoreResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.reviews {
		if r.ID != id {
			continue
		}
		if r.OwnerEmail != requesterEmail {
			return ResultForbidden
		}
		s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
		return ResultOK
	}
	return ResultNotFound
}

// ListFavorites は指定所有者のお気に入り一覧を返す。
func (s *MemoryStore) ListFavorites(ownerEmail string) []model.Favorite {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Favorite, 0)
	for _, f := range s.favorites {
		if f.OwnerEmail == ownerEmail {
			result = append(result, f)
		}
	}
	return result
}

// AddFavorite はお気に入りを登録する。
// (OwnerEmail, ReviewID) が既に存在する場合はResultDuplicateを返す。
// チェックと追加はロック内で行われるため、同時追加でも重複は発生しない。
func (s *MemoryStore) AddFavorite(favorite model.Favorite) (model.Favorite, StoreResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.favorites {
		if f.OwnerEmail == favorite.OwnerEmail && f.ReviewID == favorite.ReviewID {
			return model.Favorite{}, ResultDuplicate
		}
	}
	favorite.ID = uuid.NewString()
	s.favorites = append(s.favorites, favorite)
	return favorite, ResultOK
}

// RemoveFavorite は指定IDのお気に入りを削除する。
func (s *MemoryStore) RemoveFavorite(id, requesterEmail string) StoreResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.favorites {
		if f.ID != id {
			continue
		}
		if f.OwnerEmail != requesterEmail {
			return ResultForbidden
		}
		s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
		return ResultOK
	}
	return ResultNotFound
}

// UpsertProfile はプロフィールをメールアドレスをキーに冪等に保存する。
func (s *MemoryStore) UpsertProfile(profile model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Email] = profile
}

// GetProfile は指定メールアドレスのプロフィールを返す。
func (s *MemoryStore) GetProfile(email string) (model.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[email]
	return p, ok
}

// StoreResult はストア操作の結果分類。
type StoreResult int

const (
	// ResultOK は成功。
	ResultOK StoreResult = iota
	// ResultNotFound は対象が存在しない。
	ResultNotFound
	// ResultForbidden は所有者以外による変更要求。
	ResultForbidden
	// ResultDuplicate はお気に入りの重複登録。
	ResultDuplicate
)
