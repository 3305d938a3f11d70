package cli

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/foodiefinds/internal/apiclient"
	"github.com/hitoshi/foodiefinds/internal/guard"
	"github.com/hitoshi/foodiefinds/internal/idp"
	"github.com/hitoshi/foodiefinds/internal/repository"
	"github.com/hitoshi/foodiefinds/internal/security"
	"github.com/hitoshi/foodiefinds/internal/session"
	"github.com/hitoshi/foodiefinds/internal/stub"
)

// fakeProvider はメモリ上で動くIDプロバイダー。
type fakeProvider struct {
	accounts map[string]string // email -> password
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: make(map[string]string)}
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*idp.ProviderIdentity, error) {
	p.accounts[email] = password
	return &idp.ProviderIdentity{UID: "uid-" + email, Email: email, IDToken: "token-" + email}, nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*idp.ProviderIdentity, error) {
	if stored, ok := p.accounts[email]; !ok || stored != password {
		return nil, errInvalidCredentials()
	}
	return &idp.ProviderIdentity{UID: "uid-" + email, Email: email, DisplayName: "Taro", IDToken: "token-" + email}, nil
}

func (p *fakeProvider) FederatedLoginURL(state string) string { return "https://idp.example/auth" }

func (p *fakeProvider) ExchangeFederatedCode(ctx context.Context, code string) (*idp.ProviderIdentity, error) {
	return &idp.ProviderIdentity{UID: "uid-fed", Email: "fed@example.com", IDToken: "token-fed"}, nil
}

func (p *fakeProvider) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*idp.ProviderIdentity, error) {
	email := strings.TrimPrefix(idToken, "token-")
	return &idp.ProviderIdentity{
		UID: "uid-" + email, Email: email,
		DisplayName: displayName, PhotoURL: photoURL, IDToken: idToken,
	}, nil
}

func (p *fakeProvider) SignOut(ctx context.Context, idToken string) error { return nil }

func errInvalidCredentials() error {
	return &invalidCredentialsError{}
}

type invalidCredentialsError struct{}

func (e *invalidCredentialsError) Error() string { return "invalid credentials" }

// newTestCLI はスタブストアに接続されたCLIを、指定の入力で生成する。
func newTestCLI(t *testing.T, input string) (*CLI, *strings.Builder) {
	t.Helper()

	server := httptest.NewServer(stub.NewServer(stub.NewMemoryStore(), nil).Router())
	t.Cleanup(server.Close)

	client := apiclient.NewClient(apiclient.ClientConfig{BaseURL: server.URL}, server.Client(), nil, nil)
	reviews := repository.NewRestReviewRepo(client)
	favorites := repository.NewRestFavoriteRepo(client)
	profiles := repository.NewRestProfileRepo(client)
	sessionStore := session.NewStore(newFakeProvider(), profiles, nil)

	out := &strings.Builder{}
	cli := New(strings.NewReader(input), out, Deps{
		Session:    sessionStore,
		Reviews:    reviews,
		Favorites:  favorites,
		Guard:      guard.New(sessionStore),
		Sanitizer:  security.NewReviewSanitizer(),
		ImageGuard: security.NewImageURLGuard(),
	})
	return cli, out
}

func TestCLI_GatedCommandRequiresLogin(t *testing.T) {
	cli, out := newTestCLI(t, "add\nquit\n")

	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run がエラーを返した: %v", err)
	}
	if !strings.Contains(out.String(), "ログインが必要") {
		t.Errorf("保護コマンドは未認証で拒否されるべき: %s", out.String())
	}
}

func TestCLI_RegisterBrowseAndPost(t *testing.T) {
	input := strings.Join([]string{
		"register",
		"taro@example.com", // メールアドレス
		"Taro",             // 表示名
		"",                 // アバターURL（デフォルト）
		"Abc123",           // パスワード
		"Abc123",           // 確認
		"add",
		"Tonkotsu Ramen",              // 料理名
		"https://example.com/r.jpg",   // 画像URL
		"Ichiran",                     // 店舗名
		"Fukuoka",                     // 所在地
		"スープが濃厚で美味しかった。", // 本文
		"5",                           // 評価
		"browse ramen",
		"mine",
		"quit",
	}, "\n") + "\n"

	cli, out := newTestCLI(t, input)
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run がエラーを返した: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "サインイン中: Taro") {
		t.Errorf("登録後にサインイン状態が通知されるべき: %s", got)
	}
	if !strings.Contains(got, "レビューを投稿しました") {
		t.Errorf("投稿が成功するべき: %s", got)
	}
	if !strings.Contains(got, "Tonkotsu Ramen") {
		t.Errorf("一覧に投稿が現れるべき: %s", got)
	}
}

func TestCLI_WeakPasswordIsRejected(t *testing.T) {
	input := strings.Join([]string{
		"register",
		"taro@example.com",
		"Taro",
		"",
		"abc123", // 大文字なし
		"abc123",
		"whoami",
		"quit",
	}, "\n") + "\n"

	cli, out := newTestCLI(t, input)
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run がエラーを返した: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "パスワードが要件を満たしていません") {
		t.Errorf("弱いパスワードは拒否されるべき: %s", got)
	}
	if !strings.Contains(got, "未ログイン") {
		t.Errorf("登録失敗後は未ログインのままであるべき: %s", got)
	}
}

func TestCLI_DeleteAsksForConfirmation(t *testing.T) {
	input := strings.Join([]string{
		"register",
		"taro@example.com",
		"Taro",
		"",
		"Abc123",
		"Abc123",
		"delete some-id",
		"n", // 確認で拒否
		"quit",
	}, "\n") + "\n"

	cli, out := newTestCLI(t, input)
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run がエラーを返した: %v", err)
	}
	if !strings.Contains(out.String(), "キャンセルしました") {
		t.Errorf("確認で n の場合は削除しないべき: %s", out.String())
	}
}

func TestCLI_InsecureImageURLIsRejected(t *testing.T) {
	input := strings.Join([]string{
		"register",
		"taro@example.com",
		"Taro",
		"",
		"Abc123",
		"Abc123",
		"add",
		"Ramen",
		"http://example.com/r.jpg", // httpsでない
		"Shop",
		"Tokyo",
		"text",
		"5",
		"quit",
	}, "\n") + "\n"

	cli, out := newTestCLI(t, input)
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run がエラーを返した: %v", err)
	}
	if !strings.Contains(out.String(), "料理画像URLが不正です") {
		t.Errorf("http画像URLは拒否されるべき: %s", out.String())
	}
}

func TestCLI_ResumeAfterLogin(t *testing.T) {
	// 未認証でmineに遷移 → ログイン → 元のページへ戻る
	input := strings.Join([]string{
		"register",
		"taro@example.com",
		"Taro",
		"",
		"Abc123",
		"Abc123",
		"logout",
		"mine",
		"login",
		"taro@example.com",
		"Abc123",
		"quit",
	}, "\n") + "\n"

	cli, out := newTestCLI(t, input)
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run がエラーを返した: %v", err)
	}
	if !strings.Contains(out.String(), "元のページへ戻ります: /my-reviews") {
		t.Errorf("ログイン後に元のナビゲーションへ戻るべき: %s", out.String())
	}
}
