package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/foodiefinds/internal/apiclient"
	"github.com/hitoshi/foodiefinds/internal/model"
)

// RestProfileRepo はリモートストアのREST APIを使用したプロフィールリポジトリ。
type RestProfileRepo struct {
	client *apiclient.Client
}

// NewRestProfileRepo はRestProfileRepoを生成する。
func NewRestProfileRepo(client *apiclient.Client) *RestProfileRepo {
	return &RestProfileRepo{client: client}
}

// Upsert はプロフィールスナップショットを冪等に保存する。
func (r *RestProfileRepo) Upsert(ctx context.Context, profile model.Profile) error {
	if err := r.client.Post(ctx, "/api/users", profile, nil, profile.Email); err != nil {
		return fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*RestProfileRepo)(nil)
