package view

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/hitoshi/foodiefinds/internal/metrics"
	"github.com/hitoshi/foodiefinds/internal/model"
	"github.com/hitoshi/foodiefinds/internal/repository"
)

// ListScope はリストコントローラーが提示するレビューの範囲。
type ListScope string

const (
	// ScopeAll は全ユーザーのレビュー（検索語による絞り込み可）。
	ScopeAll ListScope = "all-reviews"
	// ScopeMine は現在のユーザー自身のレビュー。
	ScopeMine ListScope = "my-reviews"
	// ScopeFeatured は評価上位のレビュー。
	ScopeFeatured ListScope = "featured-reviews"
)

// ReviewListController はレビュー一覧ビューの状態を管理する。
// ロードは idle → loading → {loaded | error} の遷移をたどり、
// リフレッシュのたびにloadingへ再突入する。
// 世代トークンにより、破棄済み（後続のロードに追い越された）リクエストの
// 結果は適用されずに捨てられる。
type ReviewListController struct {
	scope     ListScope
	reviews   repository.ReviewRepository
	favorites repository.FavoriteRepository
	session   IdentityReader
	collector metrics.MetricsCollector
	logger    *slog.Logger

	mu         sync.Mutex
	phase      Phase
	items      []model.Review
	searchTerm string
	loadErr    error
	generation int
}

// NewReviewListController は指定スコープのリストコントローラーを生成する。
func NewReviewListController(
	scope ListScope,
	reviews repository.ReviewRepository,
	favorites repository.FavoriteRepository,
	session IdentityReader,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *ReviewListController {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewListController{
		scope:     scope,
		reviews:   reviews,
		favorites: favorites,
		session:   session,
		collector: collector,
		logger:    logger,
		phase:     PhaseIdle,
	}
}

// Load は現在のスコープのレビュー一覧を取得する。
// searchTermはScopeAllでのみ有効で、リモートストアへそのまま渡される。
// ScopeMineは未認証の場合エラーを返し、状態はerrorになる。
func (c *ReviewListController) Load(ctx context.Context, searchTerm string) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.phase = PhaseLoading
	c.searchTerm = searchTerm
	c.mu.Unlock()

	items, err := c.fetch(ctx, searchTerm)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// 後続のロードに追い越された結果は適用しない
		return nil
	}
	if err != nil {
		c.phase = PhaseError
		c.loadErr = err
		return err
	}
	c.phase = PhaseLoaded
	c.items = items
	c.loadErr = nil
	return nil
}

// Unmount はコントローラーを破棄する。進行中のロードの結果は
// 完了しても適用されない。
func (c *ReviewListController) Unmount() {
	c.mu.Lock()
	c.generation++
	c.phase = PhaseIdle
	c.items = nil
	c.loadErr = nil
	c.mu.Unlock()
}

// Delete は自分のレビューを楽観的に削除する。
// アイテムは即座にローカルリストから除去され、リモートが拒否した場合は
// 変更前のリストへ復元される。
func (c *ReviewListController) Delete(ctx context.Context, id string) MutationResult {
	current := c.session.Current()
	if current == nil {
		return MutationResult{State: MutationRolledBack, Err: errSignInRequired()}
	}

	// 1. ローカルへ即時反映し、復元用のスナップショットを取る
	c.mu.Lock()
	snapshot := slices.Clone(c.items)
	c.items = slices.DeleteFunc(slices.Clone(c.items), func(r model.Review) bool {
		return r.ID == id
	})
	c.mu.Unlock()

	// 2. リモートへ反映
	if err := c.reviews.Delete(ctx, id, current.Email); err != nil {
		// 3. 拒否された場合は変更前の状態へ復元する
		c.mu.Lock()
		c.items = snapshot
		c.mu.Unlock()
		c.collector.RecordOptimisticRollback(string(c.scope))
		c.logger.Warn("レビュー削除がリモートに拒否されたため復元しました",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
		return rolledBack(err)
	}
	return applied()
}

// AddFavorite は一覧中のレビューをお気に入りに登録する。
// 重複登録はDuplicateFavoriteとして表面化する。
func (c *ReviewListController) AddFavorite(ctx context.Context, review *model.Review) error {
	current := c.session.Current()
	if current == nil {
		return errSignInRequired()
	}
	_, err := c.favorites.Add(ctx, current.Email, review)
	return err
}

// Phase は現在のロード状態を返す。
func (c *ReviewListController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Items は現在のレビュー一覧のコピーを返す。
func (c *ReviewListController) Items() []model.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Err は直近のロードエラーを返す。
func (c *ReviewListController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *ReviewListController) fetch(ctx context.Context, searchTerm string) ([]model.Review, error) {
	switch c.scope {
	case ScopeMine:
		current := c.session.Current()
		if current == nil {
			return nil, errSignInRequired()
		}
		return c.reviews.ListByOwner(ctx, current.Email)
	case ScopeFeatured:
		return c.reviews.ListFeatured(ctx)
	default:
		return c.reviews.List(ctx, searchTerm)
	}
}
