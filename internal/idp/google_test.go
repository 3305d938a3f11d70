package idp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/foodiefinds/internal/model"
)

func newTestProvider(server *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		APIKey:           "test-key",
		ClientID:         "client-id",
		ClientSecret:     "client-secret",
		RedirectURL:      "http://localhost/callback",
		SignUpURL:        server.URL + "/signUp",
		SignInURL:        server.URL + "/signInWithPassword",
		SignInWithIdpURL: server.URL + "/signInWithIdp",
		UpdateURL:        server.URL + "/update",
		TokenURL:         server.URL + "/token",
	}, server.Client())
}

func TestGoogleProvider_SignUp_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signUp" {
			t.Errorf("path = %s, want /signUp", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %s, want test-key", r.URL.Query().Get("key"))
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "new@example.com" {
			t.Errorf("email = %v, want new@example.com", body["email"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"localId": "uid-123",
			"email":   "new@example.com",
			"idToken": "token-abc",
		})
	}))
	defer server.Close()

	p := newTestProvider(server)

	ident, err := p.SignUp(context.Background(), "new@example.com", "Abc123")
	if err != nil {
		t.Fatalf("SignUp がエラーを返した: %v", err)
	}
	if ident.UID != "uid-123" {
		t.Errorf("UID = %q, want uid-123", ident.UID)
	}
	if ident.IDToken != "token-abc" {
		t.Errorf("IDToken = %q, want token-abc", ident.IDToken)
	}
}

func TestGoogleProvider_SignUp_EmailExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "EMAIL_EXISTS"},
		})
	}))
	defer server.Close()

	p := newTestProvider(server)

	_, err := p.SignUp(context.Background(), "dup@example.com", "Abc123")
	if !model.IsCode(err, model.ErrCodeIdentityProvider) {
		t.Errorf("IdentityProviderError を期待したが err=%v", err)
	}
}

func TestGoogleProvider_SignInWithPassword_InvalidCredentials(t *testing.T) {
	// 認証情報の誤りはInvalidCredentialsに分類される
	for _, msg := range []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS"} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": msg},
			})
		}))

		p := newTestProvider(server)
		_, err := p.SignInWithPassword(context.Background(), "a@example.com", "wrong")
		if !model.IsCode(err, model.ErrCodeInvalidCredentials) {
			t.Errorf("message=%s: InvalidCredentials を期待したが err=%v", msg, err)
		}
		server.Close()
	}
}

func TestGoogleProvider_SignInWithPassword_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"localId":     "uid-1",
			"email":       "a@example.com",
			"displayName": "Alice",
			"photoUrl":    "https://example.com/a.png",
			"idToken":     "tok",
		})
	}))
	defer server.Close()

	p := newTestProvider(server)

	ident, err := p.SignInWithPassword(context.Background(), "a@example.com", "Abc123")
	if err != nil {
		t.Fatalf("SignInWithPassword がエラーを返した: %v", err)
	}
	if ident.DisplayName != "Alice" || ident.PhotoURL != "https://example.com/a.png" {
		t.Errorf("プロフィール属性が引き継がれていない: %+v", ident)
	}
}

func TestGoogleProvider_FederatedLoginURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{
		APIKey:      "k",
		ClientID:    "client-id",
		RedirectURL: "http://localhost/callback",
	}, nil)

	u := p.FederatedLoginURL("test-state")
	if !strings.Contains(u, "state=test-state") {
		t.Errorf("URLにstateが含まれていない: %s", u)
	}
	if !strings.Contains(u, "client_id=client-id") {
		t.Errorf("URLにclient_idが含まれていない: %s", u)
	}
}

func TestGoogleProvider_FederatedLoginURL_NoClientConfigured(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{APIKey: "k"}, nil)
	if u := p.FederatedLoginURL("s"); u != "" {
		t.Errorf("OAuthクライアント未設定時は空文字列を返すべき: %s", u)
	}
}

func TestGoogleProvider_ExchangeFederatedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "at",
				"id_token":     "google-idt",
			})
		case "/signInWithIdp":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			postBody, _ := body["postBody"].(string)
			if !strings.Contains(postBody, "id_token=google-idt") {
				t.Errorf("postBody = %q", postBody)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"localId":     "uid-fed",
				"email":       "fed@example.com",
				"displayName": "Fed User",
				"idToken":     "tok-fed",
			})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestProvider(server)

	ident, err := p.ExchangeFederatedCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeFederatedCode がエラーを返した: %v", err)
	}
	if ident.UID != "uid-fed" || ident.Email != "fed@example.com" {
		t.Errorf("ident = %+v", ident)
	}
}

func TestGoogleProvider_SignOut_AlwaysSucceeds(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{APIKey: "k"}, nil)
	if err := p.SignOut(context.Background(), "any-token"); err != nil {
		t.Errorf("SignOut はエラーを返さないべき: %v", err)
	}
}
