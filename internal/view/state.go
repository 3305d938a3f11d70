// Package view はリスト・詳細・編集の各ビューの状態遷移と
// 楽観的更新のリコンサイルを提供する。
// 各コントローラーはナビゲーションごとに生成される一時的な状態であり、
// 永続化されない。
package view

import (
	"github.com/hitoshi/foodiefinds/internal/model"
)

// Phase はリストビューのロード状態を表す。
type Phase string

const (
	// PhaseIdle は初期状態。
	PhaseIdle Phase = "idle"
	// PhaseLoading はロード中。明示的なリフレッシュのたびに再突入する。
	PhaseLoading Phase = "loading"
	// PhaseLoaded はロード完了。
	PhaseLoaded Phase = "loaded"
	// PhaseError はロード失敗。
	PhaseError Phase = "error"
)

// MutationState は楽観的更新の結果を表すタグ付き状態。
type MutationState string

const (
	// MutationPending はローカル反映済みでリモート確認待ち。
	MutationPending MutationState = "pending"
	// MutationApplied はリモート確認が取れ、楽観的状態が確定した。
	MutationApplied MutationState = "applied"
	// MutationRolledBack はリモートに拒否され、変更前の状態へ復元された。
	MutationRolledBack MutationState = "rolled_back"
)

// MutationResult は変更操作1回のリコンサイル結果。
// エラーは握りつぶさず、必ず呼び出し元（プレゼンテーション）に表面化する。
type MutationResult struct {
	State MutationState
	Err   error
}

// applied は確定した変更結果を返す。
func applied() MutationResult {
	return MutationResult{State: MutationApplied}
}

// rolledBack は復元済みの変更結果を返す。
func rolledBack(err error) MutationResult {
	return MutationResult{State: MutationRolledBack, Err: err}
}

// IdentityReader はセッションから所有者IDを読み取るためのインターフェース。
// session.Storeの部分集合として定義する。
type IdentityReader interface {
	Current() *model.Identity
}

// errSignInRequired はセッション必須の操作を未認証で呼び出した場合のエラー。
func errSignInRequired() error {
	return model.NewValidationError("この操作にはサインインが必要です")
}
