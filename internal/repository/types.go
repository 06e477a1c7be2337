package repository

import "time"

// AdminOperationLogListFilter 查询后台操作日志的过滤条件
type AdminOperationLogListFilter struct {
	Page        int
	PageSize    int
	Action      string
	Phone       string
	Code        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RankCount 等级库存统计结果
type RankCount struct {
	Rank  string `gorm:"column:prize_rank"`
	Total int64  `gorm:"column:total"`
}

// PhoneCount 按手机号聚合的计数结果
type PhoneCount struct {
	Phone string `gorm:"column:phone"`
	Total int64  `gorm:"column:total"`
}

// TicketStatusCount 抽选券状态计数
type TicketStatusCount struct {
	Status string `gorm:"column:status"`
	Total  int64  `gorm:"column:total"`
}
