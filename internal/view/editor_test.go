package view

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/foodiefinds/internal/model"
)

func editorPayload() model.ReviewPayload {
	return model.ReviewPayload{
		FoodName:       "Tonkotsu Ramen",
		FoodImage:      "https://example.com/ramen.jpg",
		RestaurantName: "Ichiran",
		Location:       "Fukuoka",
		Rating:         5,
		ReviewText:     "スープが濃厚で美味しかった。",
	}
}

func TestEditorController_NewStartsReady(t *testing.T) {
	c := NewEditorController(&mockReviewRepo{}, signedIn())
	if c.Phase() != EditorReady {
		t.Errorf("phase = %s, want ready", c.Phase())
	}
}

func TestEditorController_Submit_ZeroRatingPreemptsNetworkCall(t *testing.T) {
	called := false
	reviews := &mockReviewRepo{
		createFn: func(ctx context.Context, payload model.ReviewPayload, owner *model.Identity) (*model.Review, error) {
			called = true
			return &model.Review{ID: "r1"}, nil
		},
	}
	c := NewEditorController(reviews, signedIn())
	payload := editorPayload()
	payload.Rating = 0
	c.SetPayload(payload)

	err := c.Submit(context.Background())
	if !model.IsCode(err, model.ErrCodeValidation) {
		t.Errorf("ValidationError を期待したが err=%v", err)
	}
	if called {
		t.Error("評価未選択時はリモート呼び出しを行わないべき")
	}
	if c.Phase() != EditorReady {
		t.Errorf("検証エラー時はreadyのまま変化しないべき: %s", c.Phase())
	}
}

func TestEditorController_Submit_CreateSuccess(t *testing.T) {
	var gotOwner *model.Identity
	reviews := &mockReviewRepo{
		createFn: func(ctx context.Context, payload model.ReviewPayload, owner *model.Identity) (*model.Review, error) {
			gotOwner = owner
			return &model.Review{ID: "server-assigned", FoodName: payload.FoodName}, nil
		},
	}
	c := NewEditorController(reviews, signedIn())
	c.SetPayload(editorPayload())

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit がエラーを返した: %v", err)
	}
	if c.Phase() != EditorDone {
		t.Errorf("phase = %s, want done", c.Phase())
	}
	if gotOwner == nil || gotOwner.Email != "owner@example.com" {
		t.Errorf("owner = %+v", gotOwner)
	}
	if saved := c.Saved(); saved == nil || saved.ID != "server-assigned" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestEditorController_Submit_RequiresSignIn(t *testing.T) {
	c := NewEditorController(&mockReviewRepo{}, anonymous())
	c.SetPayload(editorPayload())

	err := c.Submit(context.Background())
	if !model.IsCode(err, model.ErrCodeValidation) {
		t.Errorf("未認証の送信はエラーになるべき: %v", err)
	}
}

func TestEditorController_StartEdit_LoadsExistingValues(t *testing.T) {
	reviews := &mockReviewRepo{
		getFn: func(ctx context.Context, id string) (*model.Review, error) {
			return &model.Review{
				ID:             id,
				FoodName:       "Gyoza",
				FoodImage:      "https://example.com/gyoza.jpg",
				RestaurantName: "Ohsho",
				Location:       "Kyoto",
				Rating:         4,
				ReviewText:     "皮がパリパリ。",
			}, nil
		},
	}
	c := NewEditorController(reviews, signedIn())

	if err := c.StartEdit(context.Background(), "r1"); err != nil {
		t.Fatalf("StartEdit がエラーを返した: %v", err)
	}
	if c.Phase() != EditorReady {
		t.Errorf("phase = %s, want ready", c.Phase())
	}
	payload := c.Payload()
	if payload.FoodName != "Gyoza" || payload.Rating != 4 {
		t.Errorf("既存の値がフォームに載っていない: %+v", payload)
	}
}

func TestEditorController_StartEdit_NotFound(t *testing.T) {
	reviews := &mockReviewRepo{
		getFn: func(ctx context.Context, id string) (*model.Review, error) {
			return nil, model.NewNotFoundError(id)
		},
	}
	c := NewEditorController(reviews, signedIn())

	err := c.StartEdit(context.Background(), "missing")
	if !model.IsCode(err, model.ErrCodeNotFound) {
		t.Errorf("NotFound を期待したが err=%v", err)
	}
	if c.Phase() != EditorError {
		t.Errorf("phase = %s, want error", c.Phase())
	}
}

func TestEditorController_Submit_EditUsesUpdateWithRequester(t *testing.T) {
	var gotID, gotRequester string
	reviews := &mockReviewRepo{
		getFn: func(ctx context.Context, id string) (*model.Review, error) {
			return &model.Review{ID: id, FoodName: "Sushi", FoodImage: "x", RestaurantName: "y", Location: "z", Rating: 3, ReviewText: "w"}, nil
		},
		updateFn: func(ctx context.Context, id string, payload model.ReviewPayload, requesterEmail string) (*model.Review, error) {
			gotID = id
			gotRequester = requesterEmail
			return &model.Review{ID: id}, nil
		},
	}
	c := NewEditorController(reviews, signedIn())
	c.StartEdit(context.Background(), "r7")

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit がエラーを返した: %v", err)
	}
	if gotID != "r7" || gotRequester != "owner@example.com" {
		t.Errorf("id=%q requester=%q", gotID, gotRequester)
	}
}

func TestEditorController_Submit_FailureKeepsPayloadForRetry(t *testing.T) {
	submitErr := model.NewTransientNetworkError("connection reset")
	fail := true
	reviews := &mockReviewRepo{
		createFn: func(ctx context.Context, payload model.ReviewPayload, owner *model.Identity) (*model.Review, error) {
			if fail {
				return nil, submitErr
			}
			return &model.Review{ID: "r1"}, nil
		},
	}
	c := NewEditorController(reviews, signedIn())
	c.SetPayload(editorPayload())

	if err := c.Submit(context.Background()); !errors.Is(err, submitErr) {
		t.Fatalf("err = %v", err)
	}
	if c.Phase() != EditorError {
		t.Errorf("phase = %s, want error", c.Phase())
	}
	if payload := c.Payload(); payload.FoodName != "Tonkotsu Ramen" {
		t.Errorf("送信失敗後も入力値は保持されるべき: %+v", payload)
	}

	// 同じ入力で再送信できる
	fail = false
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("再送信がエラーを返した: %v", err)
	}
	if c.Phase() != EditorDone {
		t.Errorf("phase = %s, want done", c.Phase())
	}
}
