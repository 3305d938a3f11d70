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

// FavoritesController はお気に入り一覧ビューの状態を管理する。
// 解除は楽観的に行い、リモートが拒否した場合は変更前のリストへ復元する。
type FavoritesController struct {
	favorites repository.FavoriteRepository
	session   IdentityReader
	collector metrics.MetricsCollector
	logger    *slog.Logger

	mu         sync.Mutex
	phase      Phase
	items      []model.Favorite
	loadErr    error
	generation int
}

// NewFavoritesController はお気に入りコントローラーを生成する。
func NewFavoritesController(
	favorites repository.FavoriteRepository,
	session IdentityReader,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *FavoritesController {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoritesController{
		favorites: favorites,
		session:   session,
		collector: collector,
		logger:    logger,
		phase:     PhaseIdle,
	}
}

// Load は現在のユーザーのお気に入り一覧を取得する。未認証の場合はエラー。
func (c *FavoritesController) Load(ctx context.Context) error {
	current := c.session.Current()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.phase = PhaseLoading
	c.mu.Unlock()

	var (
		items []model.Favorite
		err   error
	)
	if current == nil {
		err = errSignInRequired()
	} else {
		items, err = c.favorites.ListByOwner(ctx, current.Email)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
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

// Unmount はコントローラーを破棄する。進行中のロードの結果は適用されない。
func (c *FavoritesController) Unmount() {
	c.mu.Lock()
	c.generation++
	c.phase = PhaseIdle
	c.items = nil
	c.loadErr = nil
	c.mu.Unlock()
}

// Remove はお気に入りを楽観的に解除する。
// ローカルリストから即座に除去し、リモートが拒否した場合は復元する。
func (c *FavoritesController) Remove(ctx context.Context, id string) MutationResult {
	current := c.session.Current()
	if current == nil {
		return MutationResult{State: MutationRolledBack, Err: errSignInRequired()}
	}

	c.mu.Lock()
	snapshot := slices.Clone(c.items)
	c.items = slices.DeleteFunc(slices.Clone(c.items), func(f model.Favorite) bool {
		return f.ID == id
	})
	c.mu.Unlock()

	if err := c.favorites.Remove(ctx, id, current.Email); err != nil {
		c.mu.Lock()
		c.items = snapshot
		c.mu.Unlock()
		c.collector.RecordOptimisticRollback("my-favorites")
		c.logger.Warn("お気に入り解除がリモートに拒否されたため復元しました",
			slog.String("favorite_id", id),
			slog.String("error", err.Error()),
		)
		return rolledBack(err)
	}
	return applied()
}

// Phase は現在のロード状態を返す。
func (c *FavoritesController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Items は現在のお気に入り一覧のコピーを返す。
func (c *FavoritesController) Items() []model.Favorite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Err は直近のロードエラーを返す。
func (c *FavoritesController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}
