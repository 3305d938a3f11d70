package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/foodiefinds/internal/apiclient"
	"github.com/hitoshi/foodiefinds/internal/model"
)

func newTestFavoriteRepo(server *httptest.Server) *RestFavoriteRepo {
	client := apiclient.NewClient(apiclient.ClientConfig{BaseURL: server.URL}, server.Client(), nil, nil)
	return NewRestFavoriteRepo(client)
}

func TestRestFavoriteRepo_ListByOwner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/favorites/owner@example.com" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]model.Favorite{{ID: "f1", ReviewID: "r1"}})
	}))
	defer server.Close()

	repo := newTestFavoriteRepo(server)
	favs, err := repo.ListByOwner(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("ListByOwner がエラーを返した: %v", err)
	}
	if len(favs) != 1 || favs[0].ID != "f1" {
		t.Errorf("favs = %+v", favs)
	}
}

func TestRestFavoriteRepo_Add_SendsSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body model.Favorite
		json.NewDecoder(r.Body).Decode(&body)
		if body.OwnerEmail != "owner@example.com" || body.ReviewID != "r1" {
			t.Errorf("snapshot = %+v", body)
		}
		if body.FoodName != "Sushi" || body.Rating != 4 {
			t.Error("スナップショットがレビュー表示情報を含んでいない")
		}
		body.ID = "f-new"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	repo := newTestFavoriteRepo(server)
	review := &model.Review{ID: "r1", FoodName: "Sushi", Rating: 4, ReviewerName: "Jiro"}

	fav, err := repo.Add(context.Background(), "owner@example.com", review)
	if err != nil {
		t.Fatalf("Add がエラーを返した: %v", err)
	}
	if fav.ID != "f-new" {
		t.Errorf("ID = %q, want f-new", fav.ID)
	}
}

func TestRestFavoriteRepo_Add_DuplicateReturnsDuplicateFavorite(t *testing.T) {
	// ストアの400応答は重複登録として分類される
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	repo := newTestFavoriteRepo(server)
	review := &model.Review{ID: "r1", FoodName: "Sushi", Rating: 4}

	_, err := repo.Add(context.Background(), "owner@example.com", review)
	if !model.IsCode(err, model.ErrCodeDuplicateFavorite) {
		t.Errorf("DuplicateFavorite を期待したが err=%v", err)
	}
}

func TestRestFavoriteRepo_Remove_ForbiddenAndNotFound(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
	}{
		{status: http.StatusForbidden, wantCode: model.ErrCodeForbidden},
		{status: http.StatusNotFound, wantCode: model.ErrCodeNotFound},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		repo := newTestFavoriteRepo(server)
		err := repo.Remove(context.Background(), "f1", "someone@example.com")
		if !model.IsCode(err, tt.wantCode) {
			t.Errorf("status=%d: want %s, got err=%v", tt.status, tt.wantCode, err)
		}
		server.Close()
	}
}

func TestRestProfileRepo_Upsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body model.Profile
		json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "a@example.com" || body.DisplayName != "Alice" {
			t.Errorf("profile = %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := apiclient.NewClient(apiclient.ClientConfig{BaseURL: server.URL}, server.Client(), nil, nil)
	repo := NewRestProfileRepo(client)

	err := repo.Upsert(context.Background(), model.Profile{
		Email:       "a@example.com",
		DisplayName: "Alice",
		PhotoURL:    "https://example.com/a.png",
	})
	if err != nil {
		t.Fatalf("Upsert がエラーを返した: %v", err)
	}
}
