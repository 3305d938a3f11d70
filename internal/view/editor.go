package view

import (
	"context"
	"sync"

	"github.com/hitoshi/foodiefinds/internal/model"
	"github.com/hitoshi/foodiefinds/internal/repository"
)

// EditorPhase はレビュー編集ビューの状態を表す。
type EditorPhase string

const (
	// EditorLoadingExisting は既存レビューのロード中（編集モードのみ）。
	EditorLoadingExisting EditorPhase = "loading-existing"
	// EditorReady は入力受付中。
	EditorReady EditorPhase = "ready"
	// EditorSubmitting は送信中。
	EditorSubmitting EditorPhase = "submitting"
	// EditorDone は送信完了。
	EditorDone EditorPhase = "done"
	// EditorError はロードまたは送信の失敗。入力値は保持され、再送信できる。
	EditorError EditorPhase = "error"
)

// EditorController はレビューの作成・編集ビューの状態を管理する。
// 新規作成モードでは即座にreadyから始まり、編集モードでは
// loading-existing → ready を経て既存の値がフォームに載る。
type EditorController struct {
	reviews repository.ReviewRepository
	session IdentityReader

	mu      sync.Mutex
	phase   EditorPhase
	editID  string
	payload model.ReviewPayload
	lastErr error
	saved   *model.Review
}

// NewEditorController は新規作成モードのエディタを生成する。
func NewEditorController(reviews repository.ReviewRepository, session IdentityReader) *EditorController {
	return &EditorController{
		reviews: reviews,
		session: session,
		phase:   EditorReady,
	}
}

// StartEdit は既存レビューをロードして編集モードに入る。
// 未知のIDはNotFound、他人のレビューはForbiddenとして表面化する
// （所有者チェックは送信時にリモートストアが行うが、ロード自体は誰でもできる）。
func (c *EditorController) StartEdit(ctx context.Context, id string) error {
	c.mu.Lock()
	c.phase = EditorLoadingExisting
	c.editID = id
	c.mu.Unlock()

	review, err := c.reviews.Get(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = EditorError
		c.lastErr = err
		return err
	}
	c.payload = model.ReviewPayload{
		FoodName:       review.FoodName,
		FoodImage:      review.FoodImage,
		RestaurantName: review.RestaurantName,
		Location:       review.Location,
		Rating:         review.Rating,
		ReviewText:     review.ReviewText,
	}
	c.phase = EditorReady
	c.lastErr = nil
	return nil
}

// SetPayload は入力値を置き換える。
func (c *EditorController) SetPayload(payload model.ReviewPayload) {
	c.mu.Lock()
	c.payload = payload
	c.mu.Unlock()
}

// Payload は現在の入力値を返す。
func (c *EditorController) Payload() model.ReviewPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payload
}

// Submit は入力値を送信する。
// 評価が未選択（0）の場合はリモート呼び出しの前にValidationErrorを返し、
// 状態はreadyのまま変化しない。
// 送信失敗時は入力値を保持したままerrorに遷移し、再送信できる。
func (c *EditorController) Submit(ctx context.Context) error {
	current := c.session.Current()
	if current == nil {
		return errSignInRequired()
	}

	c.mu.Lock()
	if c.payload.Rating == 0 {
		c.mu.Unlock()
		return model.NewValidationError("評価の星が選択されていません")
	}
	payload := c.payload
	editID := c.editID
	c.phase = EditorSubmitting
	c.mu.Unlock()

	var (
		saved *model.Review
		err   error
	)
	if editID != "" {
		saved, err = c.reviews.Update(ctx, editID, payload, current.Email)
	} else {
		saved, err = c.reviews.Create(ctx, payload, current)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = EditorError
		c.lastErr = err
		return err
	}
	c.phase = EditorDone
	c.saved = saved
	c.lastErr = nil
	return nil
}

// Phase は現在の編集状態を返す。
func (c *EditorController) Phase() EditorPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Saved は送信完了したレビューを返す。未完了の場合はnil。
func (c *EditorController) Saved() *model.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saved == nil {
		return nil
	}
	copied := *c.saved
	return &copied
}

// Err は直近のロード・送信エラーを返す。
func (c *EditorController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
