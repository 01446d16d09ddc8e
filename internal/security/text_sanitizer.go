package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はユーザー入力文字列のサニタイズ機能のインターフェース。
// 薬剤名や医師名などのユーザー入力は通知メールの件名・本文に埋め込まれるため、
// HTMLタグやスクリプトを含む入力をプレーンテキストに落としてから使用する。
type TextSanitizerService interface {
	// Sanitize は入力文字列からすべてのHTMLタグを除去し、
	// エンティティをデコードしたプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しないため、通知本文には安全な
// プレーンテキストのみが残る。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力文字列からすべてのHTMLタグを除去する。
// bluemondayはタグ除去後にエンティティエスケープされた文字列を返すため、
// プレーンテキスト用途にデコードしてから返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ TextSanitizerService = (*textSanitizer)(nil)
