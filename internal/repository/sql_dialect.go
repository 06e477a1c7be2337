package repository

import (
	"strings"

	"gorm.io/gorm"
)

const likeEscapeChar = `\`

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// suffixLikeCondition 构建末尾匹配条件，参数需经 suffixLikePattern 转义。
func suffixLikeCondition(db *gorm.DB, column string) string {
	return column + " " + likeOperatorByDialect(dbDialectName(db)) + " ? ESCAPE '" + likeEscapeChar + "'"
}

// suffixLikePattern 转义通配符后生成 "%xxx" 模式，避免用户输入中的 % 与 _ 被当作通配符。
func suffixLikePattern(suffix string) string {
	replacer := strings.NewReplacer(
		likeEscapeChar, likeEscapeChar+likeEscapeChar,
		"%", likeEscapeChar+"%",
		"_", likeEscapeChar+"_",
	)
	return "%" + replacer.Replace(suffix)
}
