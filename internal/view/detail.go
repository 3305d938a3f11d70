package view

import (
	"context"
	"sync"

	"github.com/hitoshi/foodiefinds/internal/model"
	"github.com/hitoshi/foodiefinds/internal/repository"
)

// DetailController はレビュー詳細ビューの状態を管理する。
type DetailController struct {
	reviews   repository.ReviewRepository
	favorites repository.FavoriteRepository
	session   IdentityReader

	mu         sync.Mutex
	phase      Phase
	review     *model.Review
	loadErr    error
	generation int
}

// NewDetailController は詳細コントローラーを生成する。
func NewDetailController(
	reviews repository.ReviewRepository,
	favorites repository.FavoriteRepository,
	session IdentityReader,
) *DetailController {
	return &DetailController{
		reviews:   reviews,
		favorites: favorites,
		session:   session,
		phase:     PhaseIdle,
	}
}

// Load は指定IDのレビューを取得する。未知のIDはNotFoundとして表面化する。
func (c *DetailController) Load(ctx context.Context, id string) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.phase = PhaseLoading
	c.mu.Unlock()

	review, err := c.reviews.Get(ctx, id)

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
	c.review = review
	c.loadErr = nil
	return nil
}

// Unmount はコントローラーを破棄する。進行中のロードの結果は適用されない。
func (c *DetailController) Unmount() {
	c.mu.Lock()
	c.generation++
	c.phase = PhaseIdle
	c.review = nil
	c.loadErr = nil
	c.mu.Unlock()
}

// Favorite は表示中のレビューをお気に入りに登録する。
// レビュー未ロードの場合と未認証の場合はエラーを返す。
func (c *DetailController) Favorite(ctx context.Context) error {
	current := c.session.Current()
	if current == nil {
		return errSignInRequired()
	}

	c.mu.Lock()
	review := c.review
	c.mu.Unlock()
	if review == nil {
		return model.NewValidationError("レビューがロードされていません")
	}

	_, err := c.favorites.Add(ctx, current.Email, review)
	return err
}

// Phase は現在のロード状態を返す。
func (c *DetailController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Review は表示中のレビューのコピーを返す。未ロードの場合はnil。
func (c *DetailController) Review() *model.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.review == nil {
		return nil
	}
	copied := *c.review
	return &copied
}

// Err は直近のロードエラーを返す。
func (c *DetailController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}
