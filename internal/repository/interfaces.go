// Package repository はリモートストアに対するデータアクセスのインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/foodiefinds/internal/model"
)

// ReviewRepository はレビューコレクションへのCRUD操作インターフェース。
type ReviewRepository interface {
	// List はレビュー一覧を取得する。searchTermが非空の場合、
	// foodNameに対する大文字小文字を区別しない部分一致で絞り込む。
	// 並び順はストアが返した順序（新着順）をそのまま保持する。
	List(ctx context.Context, searchTerm string) ([]model.Review, error)

	// Get は指定IDのレビューを取得する。未知のIDはNotFoundを返す。
	Get(ctx context.Context, id string) (*model.Review, error)

	// ListByOwner は指定所有者のレビュー一覧を取得する。
	ListByOwner(ctx context.Context, ownerEmail string) ([]model.Review, error)

	// ListFeatured は評価上位のレビューを取得する。
	ListFeatured(ctx context.Context) ([]model.Review, error)

	// Create はレビューを新規作成する。IDと投稿日時はストアが採番・付与する。
	// 入力不備はリモート呼び出し前にValidationErrorとして検出される。
	Create(ctx context.Context, payload model.ReviewPayload, owner *model.Identity) (*model.Review, error)

	// Update は指定IDのレビューを更新する。所有者以外の要求はForbiddenを返す
	// （チェックはリモートストアが行う）。
	Update(ctx context.Context, id string, payload model.ReviewPayload, requesterEmail string) (*model.Review, error)

	// Delete は指定IDのレビューを削除する。取り消しはできない。
	// 所有者以外の要求はForbiddenを返す。
	Delete(ctx context.Context, id, requesterEmail string) error
}

// FavoriteRepository はお気に入りコレクションへの操作インターフェース。
type FavoriteRepository interface {
	// ListByOwner は指定所有者のお気に入り一覧を取得する。
	ListByOwner(ctx context.Context, ownerEmail string) ([]model.Favorite, error)

	// Add はレビューのスナップショットをお気に入りに登録する。
	// (ownerEmail, review.ID) が既に存在する場合はDuplicateFavoriteを返す。
	// 一意性は同時追加に対してもストア側で原子的に保証される。
	Add(ctx context.Context, ownerEmail string, review *model.Review) (*model.Favorite, error)

	// Remove は指定IDのお気に入りを解除する。
	// 所有者以外の要求はForbidden、未知のIDはNotFoundを返す。
	Remove(ctx context.Context, id, requesterEmail string) error
}

// ProfileRepository はプロフィールスナップショットの永続化インターフェース。
type ProfileRepository interface {
	// Upsert はプロフィールをリモートストアに冪等に保存する。
	// サインアップ・サインイン成功時にfire-and-forgetで呼び出される。
	Upsert(ctx context.Context, profile model.Profile) error
}
