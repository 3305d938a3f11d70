// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, review, favorite, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeWeakCredential   = "WEAK_CREDENTIAL"
	ErrCodePasswordMismatch = "PASSWORD_MISMATCH"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeIdentityProvider = "IDENTITY_PROVIDER_ERROR"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeDuplicateFavorite = "DUPLICATE_FAVORITE"
	ErrCodeTransientNetwork = "TRANSIENT_NETWORK_ERROR"
)

// CodeOf はエラーからAPIErrorのコードを取り出す。
// APIErrorでない場合は空文字列を返す。
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// IsCode はエラーが指定コードのAPIErrorかどうかを判定する。
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// NewValidationError は入力検証エラーを生成する。
// ネットワーク呼び出しの前に検出されるクライアント側エラー。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に不備があります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewWeakCredentialError はパスワードポリシー違反エラーを生成する。
func NewWeakCredentialError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeWeakCredential,
		Message:  fmt.Sprintf("パスワードが要件を満たしていません: %s", reason),
		Category: "auth",
		Action:   "6文字以上で、大文字と小文字を両方含むパスワードを設定してください。",
	}
}

// NewPasswordMismatchError はパスワード確認不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "パスワードと確認用パスワードが一致しません。",
		Category: "auth",
		Action:   "同じパスワードを2回入力してください。",
	}
}

// NewInvalidCredentialsError は認証情報不正エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度ログインしてください。",
	}
}

// NewIdentityProviderError はIdPからの拒否応答エラーを生成する。
func NewIdentityProviderError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeIdentityProvider,
		Message:  fmt.Sprintf("認証プロバイダーがリクエストを拒否しました: %s", reason),
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewForbiddenError は所有者以外による変更操作のエラーを生成する。
// 所有者チェックはリモートストアが唯一の権威として行う。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "review",
		Action:   "自分が投稿したレビューのみ編集・削除できます。",
	}
}

// NewNotFoundError は対象リソース未検出エラーを生成する。
func NewNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定されたデータが見つかりません: %s", id),
		Category: "review",
		Action:   "削除済みでないかを確認してください。",
	}
}

// NewDuplicateFavoriteError は重複お気に入りエラーを生成する。
// (ownerEmail, reviewID) の組はストア側で一意に保たれる。
func NewDuplicateFavoriteError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFavorite,
		Message:  "このレビューは既にお気に入りに登録されています。",
		Category: "favorite",
		Action:   "お気に入り一覧から該当レビューを確認してください。",
	}
}

// NewTransientNetworkError はトランスポート層由来の一時エラーを生成する。
// 自動リトライは行わず、呼び出し元のコントローラーが利用者に通知する。
func NewTransientNetworkError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeTransientNetwork,
		Message:  fmt.Sprintf("通信に失敗しました: %s", reason),
		Category: "system",
		Action:   "ネットワーク状態を確認し、しばらく待ってから再度お試しください。",
	}
}
