package service

import (
	"strings"
	"unicode"

	"github.com/prize-lottery/internal/constants"
)

// NormalizePhone 去除手机号中的非数字字符
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeCodeInput 统一奖品码输入：去空格并转大写
func normalizeCodeInput(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// isPhoneQuery 查询串中数字位数足够时视为手机号
func isPhoneQuery(query string) bool {
	digits := 0
	for _, r := range query {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			digits++
		}
	}
	return digits >= constants.LookupPhoneMinDigits
}

// lastRunes 返回字符串末尾 n 个字符
func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
