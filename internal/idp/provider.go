// Package idp は外部IDプロバイダーとの認証フローを提供する。
package idp

import "context"

// ProviderIdentity はIDプロバイダーから取得した認証済みユーザー情報を表す。
type ProviderIdentity struct {
	UID         string // プロバイダーが発行する安定ID
	Email       string
	DisplayName string
	PhotoURL    string
	IDToken     string
}

// Provider はIDプロバイダーのインターフェース。
// ワイヤフォーマットはプロバイダー固有であり、呼び出し側は関知しない。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type Provider interface {
	// SignUp はメールアドレスとパスワードで新規アカウントを作成する。
	SignUp(ctx context.Context, email, password string) (*ProviderIdentity, error)

	// SignInWithPassword はメールアドレスとパスワードでサインインする。
	SignInWithPassword(ctx context.Context, email, password string) (*ProviderIdentity, error)

	// FederatedLoginURL はフェデレーテッドサインインの認証URLを生成する。
	FederatedLoginURL(state string) string

	// ExchangeFederatedCode は認可コードをプロバイダーの認証情報に交換する。
	ExchangeFederatedCode(ctx context.Context, code string) (*ProviderIdentity, error)

	// UpdateProfile は表示名とアバターURLを更新する。
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*ProviderIdentity, error)

	// SignOut はプロバイダー側のセッションを破棄する。
	// 失敗してもローカルのセッション破棄は妨げない。
	SignOut(ctx context.Context, idToken string) error
}
