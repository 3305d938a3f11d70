package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/hitoshi/foodiefinds/internal/apiclient"
	"github.com/hitoshi/foodiefinds/internal/model"
)

// RestFavoriteRepo はリモートストアのREST APIを使用したお気に入りリポジトリ。
type RestFavoriteRepo struct {
	client *apiclient.Client
}

// NewRestFavoriteRepo はRestFavoriteRepoを生成する。
func NewRestFavoriteRepo(client *apiclient.Client) *RestFavoriteRepo {
	return &RestFavoriteRepo{client: client}
}

// ListByOwner は指定所有者のお気に入り一覧を取得する。
func (r *RestFavoriteRepo) ListByOwner(ctx context.Context, ownerEmail string) ([]model.Favorite, error) {
	var favorites []model.Favorite
	if err := r.client.Get(ctx, "/api/favorites/"+url.PathEscape(ownerEmail), &favorites); err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	return favorites, nil
}

// Add はレビューの登録時点スナップショットをお気に入りに追加する。
// ストアが重複を検出した場合（400）はDuplicateFavoriteを返す。
func (r *RestFavoriteRepo) Add(ctx context.Context, ownerEmail string, review *model.Review) (*model.Favorite, error) {
	snapshot := model.NewFavoriteSnapshot(ownerEmail, review)

	var created model.Favorite
	if err := r.client.Post(ctx, "/api/favorites", snapshot, &created, ownerEmail); err != nil {
		if errors.Is(err, apiclient.ErrBadRequest) {
			return nil, model.NewDuplicateFavoriteError()
		}
		return nil, fmt.Errorf("お気に入りの追加に失敗しました: %w", err)
	}
	return &created, nil
}

// Remove は指定IDのお気に入りを解除する。
func (r *RestFavoriteRepo) Remove(ctx context.Context, id, requesterEmail string) error {
	if err := r.client.Delete(ctx, "/api/favorites/"+url.PathEscape(id), requesterEmail); err != nil {
		return fmt.Errorf("お気に入りの解除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FavoriteRepository = (*RestFavoriteRepo)(nil)
