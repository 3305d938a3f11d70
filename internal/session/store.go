// Package session は認証済みIDのライフサイクルと観測可能なセッション状態を提供する。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode"

	"github.com/hitoshi/foodiefinds/internal/idp"
	"github.com/hitoshi/foodiefinds/internal/model"
	"github.com/hitoshi/foodiefinds/internal/repository"
)

// Subscriber はセッション状態の変化を受け取るコールバック。
// 認証済みの場合はIdentityのスナップショット、未認証の場合はnilを受け取る。
type Subscriber func(*model.Identity)

// Store は現在の認証済みIDを所有する唯一のコンポーネント。
// IDスロットは単一ライター（Store自身）・複数リーダーであり、
// 読み取りは常に一貫したスナップショットを返す。
// 状態遷移（未認証→認証、認証→未認証、属性変更）のたびに
// 全サブスクライバーへ同期的に通知する。
type Store struct {
	provider idp.Provider
	profiles repository.ProfileRepository
	logger   *slog.Logger

	mu          sync.RWMutex
	identity    *model.Identity
	subscribers map[int]Subscriber
	nextSubID   int
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore(provider idp.Provider, profiles repository.ProfileRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		provider:    provider,
		profiles:    profiles,
		logger:      logger,
		subscribers: make(map[int]Subscriber),
	}
}

// SignUp はメールアドレスとパスワードで新規登録し、セッションを確立する。
// パスワードポリシー違反はWeakCredential、確認用パスワードの不一致は
// PasswordMismatchとしてリモート呼び出しの前に検出される。
// 成功時はプロフィールスナップショットをfire-and-forgetで保存する
// （保存失敗はサインアップを取り消さない）。
func (s *Store) SignUp(ctx context.Context, email, password, confirm, displayName, photoURL string) (*model.Identity, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if confirm != "" && confirm != password {
		return nil, model.NewPasswordMismatchError()
	}

	if photoURL == "" {
		photoURL = model.DefaultAvatarURL
	}

	// 1. アカウント作成
	created, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// 2. 表示名とアバターを設定
	updated, err := s.provider.UpdateProfile(ctx, created.IDToken, displayName, photoURL)
	if err != nil {
		return nil, err
	}

	identity := toIdentity(updated)

	// 3. プロフィールスナップショットの保存（fire-and-forget）
	s.upsertProfile(ctx, identity)

	// 4. セッション確立。ここまでのいずれかが失敗した場合、IDスロットは変化しない
	s.setIdentity(identity)

	s.logger.Info("ユーザーを新規登録しました",
		slog.String("uid", identity.UID),
		slog.String("email", identity.Email),
	)
	return s.Current(), nil
}

// SignIn はメールアドレスとパスワードでサインインする。
// 認証情報の誤りはInvalidCredentialsを返す。
func (s *Store) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	signedIn, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	identity := toIdentity(signedIn)
	s.upsertProfile(ctx, identity)
	s.setIdentity(identity)

	s.logger.Info("ユーザーがサインインしました", slog.String("uid", identity.UID))
	return s.Current(), nil
}

// FederatedLoginURL はフェデレーテッドサインインの認証URLを返す。
func (s *Store) FederatedLoginURL(state string) string {
	return s.provider.FederatedLoginURL(state)
}

// FederatedSignIn は認可コードを使用してフェデレーテッドサインインを完了する。
// 成功時はプロフィールスナップショットをupsertする。
func (s *Store) FederatedSignIn(ctx context.Context, code string) (*model.Identity, error) {
	signedIn, err := s.provider.ExchangeFederatedCode(ctx, code)
	if err != nil {
		return nil, err
	}

	identity := toIdentity(signedIn)
	s.upsertProfile(ctx, identity)
	s.setIdentity(identity)

	s.logger.Info("フェデレーテッドサインインが完了しました", slog.String("uid", identity.UID))
	return s.Current(), nil
}

// SignOut はセッションを破棄する。冪等であり、
// リモートのサインアウトが失敗してもローカルのIDは必ずクリアされる。
func (s *Store) SignOut(ctx context.Context) error {
	current := s.Current()
	if current == nil {
		return nil
	}

	if err := s.provider.SignOut(ctx, current.IDToken); err != nil {
		s.logger.Warn("リモートサインアウトに失敗しましたが、ローカルセッションは破棄します",
			slog.String("error", err.Error()),
		)
	}

	s.setIdentity(nil)
	s.logger.Info("ユーザーがサインアウトしました", slog.String("uid", current.UID))
	return nil
}

// UpdateProfile は現在のユーザーの表示名とアバターURLを更新する。
// 対象は常に自分自身であり、未認証の場合はエラーを返す。
func (s *Store) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	current := s.Current()
	if current == nil {
		return model.NewValidationError("プロフィール更新にはサインインが必要です")
	}

	updated, err := s.provider.UpdateProfile(ctx, current.IDToken, displayName, photoURL)
	if err != nil {
		return err
	}

	identity := toIdentity(updated)
	// updateレスポンスにメールが含まれない場合に備えて所有者キーを引き継ぐ
	if identity.Email == "" {
		identity.Email = current.Email
	}
	s.setIdentity(identity)
	return nil
}

// Current は現在のIdentityのスナップショットを返す。未認証の場合はnil。
// 返される値はコピーであり、呼び出し側が変更してもスロットに影響しない。
func (s *Store) Current() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

// Subscribe はセッション状態の変化を購読する。
// 戻り値の関数を呼ぶと購読を解除する。
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// setIdentity はIDスロットを更新し、全サブスクライバーへ同期的に通知する。
// 通知はロック外で行い、サブスクライバーからのCurrent()呼び出しを許容する。
func (s *Store) setIdentity(identity *model.Identity) {
	s.mu.Lock()
	s.identity = identity
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		var snapshot *model.Identity
		if identity != nil {
			copied := *identity
			snapshot = &copied
		}
		fn(snapshot)
	}
}

// upsertProfile はプロフィールスナップショットをfire-and-forgetで保存する。
// 失敗はログに残すのみで、呼び出し元の認証フローを失敗させない。
func (s *Store) upsertProfile(ctx context.Context, identity *model.Identity) {
	err := s.profiles.Upsert(ctx, model.Profile{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
	})
	if err != nil {
		s.logger.Warn("プロフィールスナップショットの保存に失敗しました",
			slog.String("email", identity.Email),
			slog.String("error", err.Error()),
		)
	}
}

// validatePassword はパスワードポリシーを検証する。
// 6文字以上で、大文字と小文字を両方含む必要がある。
func validatePassword(password string) error {
	if len(password) < 6 {
		return model.NewWeakCredentialError(fmt.Sprintf("%d文字は短すぎます", len(password)))
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if !hasUpper {
		return model.NewWeakCredentialError("大文字が含まれていません")
	}
	if !hasLower {
		return model.NewWeakCredentialError("小文字が含まれていません")
	}
	return nil
}

func toIdentity(p *idp.ProviderIdentity) *model.Identity {
	return &model.Identity{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		IDToken:     p.IDToken,
	}
}
