package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/foodiefinds/internal/model"
)

const (
	defaultSignUpURL       = "https://identitytoolkit.googleapis.com/v1/accounts:signUp"
	defaultSignInURL       = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"
	defaultSignInWithIdpURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithIdp"
	defaultUpdateURL       = "https://identitytoolkit.googleapis.com/v1/accounts:update"
	defaultGoogleAuthURL   = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL  = "https://oauth2.googleapis.com/token"
)

// GoogleConfig はGoogle Identity Toolkitプロバイダーの設定。
type GoogleConfig struct {
	APIKey string

	// フェデレーテッドサインイン用のOAuthクライアント設定。
	// 未設定の場合、FederatedLoginURLは空文字列を返す。
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	SignUpURL        string
	SignInURL        string
	SignInWithIdpURL string
	UpdateURL        string
	AuthURL          string
	TokenURL         string
}

// GoogleProvider はGoogle Identity Toolkit REST APIによる認証を提供する。
// メール+パスワード認証とGoogle OAuthフェデレーテッドサインインの両方に対応する。
type GoogleProvider struct {
	config     GoogleConfig
	httpClient *http.Client
}

// NewGoogleProvider はGoogleProviderを生成する。
func NewGoogleProvider(config GoogleConfig, httpClient *http.Client) *GoogleProvider {
	if config.SignUpURL == "" {
		config.SignUpURL = defaultSignUpURL
	}
	if config.SignInURL == "" {
		config.SignInURL = defaultSignInURL
	}
	if config.SignInWithIdpURL == "" {
		config.SignInWithIdpURL = defaultSignInWithIdpURL
	}
	if config.UpdateURL == "" {
		config.UpdateURL = defaultUpdateURL
	}
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleProvider{config: config, httpClient: httpClient}
}

// accountResponse はIdentity Toolkitの各エンドポイントの共通レスポンス。
type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
}

// errorResponse はIdentity Toolkitのエラーレスポンス。
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp はメールアドレスとパスワードで新規アカウントを作成する。
func (p *GoogleProvider) SignUp(ctx context.Context, email, password string) (*ProviderIdentity, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	acct, err := p.postAccount(ctx, p.config.SignUpURL, body)
	if err != nil {
		return nil, err
	}
	return acct.toIdentity(), nil
}

// SignInWithPassword はメールアドレスとパスワードでサインインする。
func (p *GoogleProvider) SignInWithPassword(ctx context.Context, email, password string) (*ProviderIdentity, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	acct, err := p.postAccount(ctx, p.config.SignInURL, body)
	if err != nil {
		return nil, err
	}
	return acct.toIdentity(), nil
}

// FederatedLoginURL はGoogle OAuthの認証URLを生成する。
// スコープにはemail, profileを含む。OAuthクライアント未設定の場合は空文字列。
func (p *GoogleProvider) FederatedLoginURL(state string) string {
	if p.config.ClientID == "" {
		return ""
	}
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
		"access_type":   {"offline"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// googleTokenResponse はGoogleのトークンエンドポイントのレスポンス。
type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ExchangeFederatedCode は認可コードをトークンに交換し、
// Identity ToolkitのsignInWithIdpでアカウントに紐付ける。
func (p *GoogleProvider) ExchangeFederatedCode(ctx context.Context, code string) (*ProviderIdentity, error) {
	// 1. 認可コードをアクセストークンに交換
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	// 2. signInWithIdpでプロバイダー認証情報をアカウントに変換
	body := map[string]any{
		"postBody":            "id_token=" + tokenResp.IDToken + "&providerId=google.com",
		"requestUri":          p.config.RedirectURL,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	acct, err := p.postAccount(ctx, p.config.SignInWithIdpURL, body)
	if err != nil {
		return nil, err
	}
	return acct.toIdentity(), nil
}

// UpdateProfile は表示名とアバターURLを更新する。
func (p *GoogleProvider) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*ProviderIdentity, error) {
	body := map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"photoUrl":          photoURL,
		"returnSecureToken": true,
	}
	acct, err := p.postAccount(ctx, p.config.UpdateURL, body)
	if err != nil {
		return nil, err
	}
	ident := acct.toIdentity()
	// updateレスポンスは新トークンを返さない場合があるため既存トークンを引き継ぐ
	if ident.IDToken == "" {
		ident.IDToken = idToken
	}
	return ident, nil
}

// SignOut はプロバイダー側のセッションを破棄する。
// Identity Toolkitのトークンはステートレスのためリモート破棄は不要であり、
// 常に成功を返す。ローカルのセッション破棄は呼び出し側が行う。
func (p *GoogleProvider) SignOut(ctx context.Context, idToken string) error {
	return nil
}

// exchangeToken は認可コードをアクセストークンに交換する。
func (p *GoogleProvider) exchangeToken(ctx context.Context, code string) (*googleTokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewIdentityProviderError(fmt.Sprintf("token exchange failed with status %d", resp.StatusCode))
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.IDToken == "" {
		return nil, model.NewIdentityProviderError("empty id_token in token response")
	}

	return &tokenResp, nil
}

// postAccount はIdentity ToolkitのアカウントエンドポイントにJSONをPOSTする。
// 拒否応答はAPIErrorに変換して返す。
func (p *GoogleProvider) postAccount(ctx context.Context, endpoint string, body map[string]any) (*accountResponse, error) {
	reqURL := endpoint + "?key=" + url.QueryEscape(p.config.APIKey)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, model.NewTransientNetworkError(err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapProviderError(respBody, resp.StatusCode)
	}

	var acct accountResponse
	if err := json.Unmarshal(respBody, &acct); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if acct.LocalID == "" {
		return nil, model.NewIdentityProviderError("empty localId in response")
	}

	return &acct, nil
}

// mapProviderError はIdPの拒否応答をドメインのエラー分類に変換する。
// 認証情報の誤りはInvalidCredentials、それ以外はIdentityProviderErrorとして扱う。
func mapProviderError(body []byte, statusCode int) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return model.NewIdentityProviderError(fmt.Sprintf("status %d", statusCode))
	}

	msg := errResp.Error.Message
	switch {
	case strings.HasPrefix(msg, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(msg, "INVALID_PASSWORD"),
		strings.HasPrefix(msg, "INVALID_LOGIN_CREDENTIALS"):
		return model.NewInvalidCredentialsError()
	default:
		return model.NewIdentityProviderError(msg)
	}
}

func (a *accountResponse) toIdentity() *ProviderIdentity {
	return &ProviderIdentity{
		UID:         a.LocalID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		IDToken:     a.IDToken,
	}
}

// compile-time interface check
var _ Provider = (*GoogleProvider)(nil)
