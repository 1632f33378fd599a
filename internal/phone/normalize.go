// Package phone は電話番号の登録・検証・プライマリ管理のドメインロジックを提供する。
package phone

import (
	"strings"

	"github.com/hitoshi/notibac/internal/model"
)

// Normalize は入力から数字以外を取り除き、北米番号を "+1" + 10桁に正規化する。
// 10桁ならそのまま "+1" を付け、"1" で始まる11桁なら "+" を付ける。
// それ以外はINVALID_PHONE_NUMBERを返す。
func Normalize(input string) (string, error) {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	}
	return "", model.NewInvalidPhoneNumberError()
}
