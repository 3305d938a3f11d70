// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ReviewSanitizerService はユーザーが入力したレビューテキストをサニタイズし、
// XSS攻撃などのセキュリティリスクから他の閲覧者を保護する。
// レビュー本文はプレーンテキストとして扱うため、
// bluemondayのStrictPolicyで全てのHTMLタグを除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ReviewSanitizerService はレビュー入力値のサニタイズ機能のインターフェースを定義する。
// レビューの作成・更新の送信前に使用される。
type ReviewSanitizerService interface {
	// SanitizeText はテキストから全てのHTMLタグを除去したプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// reviewSanitizer はReviewSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type reviewSanitizer struct {
	policy *bluemonday.Policy
}

// NewReviewSanitizer はReviewSanitizerServiceの新しいインスタンスを生成する。
// レビュー本文・料理名・店舗名・所在地はHTMLを含まないプレーンテキストであり、
// StrictPolicyにより全てのタグと属性が除去される。
func NewReviewSanitizer() *reviewSanitizer {
	return &reviewSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はテキストから全てのHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyはエンティティをエスケープした形で残すため、
// プレーンテキストとして保存できるようアンエスケープしてから返す。
func (s *reviewSanitizer) SanitizeText(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
