// Package guard は保護されたパスへのアクセス判定を提供する。
package guard

import (
	"strings"

	"github.com/hitoshi/foodiefinds/internal/model"
)

// Decision はアクセス判定の結果を表す。
type Decision struct {
	// Allowed がtrueの場合、そのまま遷移してよい。
	Allowed bool
	// RedirectTo はリダイレクト先パス。Allowedがfalseの場合のみ有効。
	RedirectTo string
	// ResumePath は認証完了後に戻るべき元のパス。
	ResumePath string
}

// LoginPath は未認証時のリダイレクト先。
const LoginPath = "/login"

// gatedPaths は認証必須のパス。完全一致で判定する。
var gatedPaths = map[string]struct{}{
	"/add-review":   {},
	"/my-reviews":   {},
	"/my-favorites": {},
}

// gatedPrefixes は認証必須のパスプレフィックス。
var gatedPrefixes = []string{
	"/update-review/",
}

// AccessGuard は保護パスへの遷移を認証状態に基づいて判定する。
type AccessGuard struct {
	session IdentityReader
}

// IdentityReader はセッションから現在のIDを読み取るインターフェース。
type IdentityReader interface {
	Current() *model.Identity
}

// New はAccessGuardを生成する。
func New(session IdentityReader) *AccessGuard {
	return &AccessGuard{session: session}
}

// Authorize はパスへの遷移可否を判定する。
// 保護パスへの未認証アクセスはログインページへのリダイレクトとなり、
// 元のパスがResumePathとして保持される。認証完了後はそこへ戻る。
func (g *AccessGuard) Authorize(path string) Decision {
	if !IsGated(path) {
		return Decision{Allowed: true}
	}
	if g.session.Current() != nil {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed:    false,
		RedirectTo: LoginPath,
		ResumePath: path,
	}
}

// IsGated はパスが認証必須かどうかを返す。
func IsGated(path string) bool {
	if _, ok := gatedPaths[path]; ok {
		return true
	}
	for _, prefix := range gatedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
