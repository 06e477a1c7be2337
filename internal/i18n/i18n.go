package i18n

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prize-lottery/internal/constants"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const localeHeader = "X-Locale"

var (
	defaultMu     sync.RWMutex
	defaultLocale = constants.LocaleEnUS
)

var acceptMatcher = language.NewMatcher([]language.Tag{language.English, language.Japanese})

var catalogs = map[string]map[string]string{
	constants.LocaleJaJP: {
		"error.invalid_input":       "入力内容が正しくありません",
		"error.secret_mismatch":     "合言葉が違います",
		"error.no_ticket":           "抽選権がありません",
		"error.no_stock":            "コード在庫なし",
		"error.race_lost":           "抽選権が同時に使用されました。もう一度お試しください",
		"error.no_revocable_ticket": "取り消せる抽選権がありません（未使用 or 期限内が0件）",
		"error.code_not_found":      "該当するコードが見つかりません",
		"error.lookup_not_found":    "該当ユーザーなし",
		"error.store_failure":       "データ処理エラー: %s",
		"error.too_many_requests":   "リクエストが多すぎます。%d 秒後に再試行してください",
	},
	constants.LocaleEnUS: {
		"error.invalid_input":       "invalid input",
		"error.secret_mismatch":     "secret mismatch",
		"error.no_ticket":           "no usable draw ticket",
		"error.no_stock":            "no prize stock available",
		"error.race_lost":           "draw ticket consumed concurrently",
		"error.no_revocable_ticket": "no revocable draw ticket",
		"error.code_not_found":      "prize code not found",
		"error.lookup_not_found":    "lookup target not found",
		"error.store_failure":       "store failure: %s",
		"error.too_many_requests":   "too many requests, retry in %d seconds",
	},
}

// SetDefaultLocale 设置请求未指定语言时使用的语言，不支持的值保持原设置
func SetDefaultLocale(locale string) {
	normalized := NormalizeLocale(locale)
	if normalized == "" {
		return
	}
	defaultMu.Lock()
	defaultLocale = normalized
	defaultMu.Unlock()
}

// DefaultLocale 当前默认语言
func DefaultLocale() string {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLocale
}

// NormalizeLocale 归一化语言标识，无法识别时返回空串
func NormalizeLocale(raw string) string {
	value := strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
	if value == "" {
		return ""
	}
	tag, err := language.Parse(value)
	if err != nil {
		return ""
	}
	return localeForTag(tag)
}

func localeForTag(tag language.Tag) string {
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	switch base.String() {
	case "ja":
		return constants.LocaleJaJP
	case "en":
		return constants.LocaleEnUS
	}
	return ""
}

// ResolveLocale 按 lang 参数、X-Locale 头、Accept-Language 的顺序解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale()
	}
	if locale := NormalizeLocale(c.Query("lang")); locale != "" {
		return locale
	}
	if locale := NormalizeLocale(c.GetHeader(localeHeader)); locale != "" {
		return locale
	}
	if locale := matchAcceptLanguage(c.GetHeader("Accept-Language")); locale != "" {
		return locale
	}
	return DefaultLocale()
}

func matchAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	tag, _, confidence := acceptMatcher.Match(tags...)
	if confidence == language.No {
		return ""
	}
	return localeForTag(tag)
}

// T 取翻译文案，缺失时依次回退到支持语言，最后返回 key 本身
func T(locale, key string) string {
	if msg, ok := lookup(locale, key); ok {
		return msg
	}
	for _, fallback := range constants.SupportedLocales {
		if msg, ok := lookup(fallback, key); ok {
			return msg
		}
	}
	return key
}

// Sprintf 取翻译模板并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func lookup(locale, key string) (string, bool) {
	catalog, ok := catalogs[NormalizeLocale(locale)]
	if !ok {
		return "", false
	}
	msg, ok := catalog[key]
	return msg, ok
}
