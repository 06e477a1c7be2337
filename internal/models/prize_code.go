package models

import (
	"time"

	"github.com/prize-lottery/internal/constants"
)

// PrizeCode 奖品码库存表
type PrizeCode struct {
	ID            uint       `gorm:"primarykey" json:"-"`
	Code          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	BenefitText   string     `gorm:"type:text;not null" json:"benefit_text"`
	Rank          string     `gorm:"column:prize_rank;type:varchar(8);index:idx_prize_codes_rank_status;not null" json:"rank"`
	Status        string     `gorm:"type:varchar(16);index:idx_prize_codes_rank_status;not null" json:"status"`
	AssignedPhone *string    `gorm:"type:varchar(32);index" json:"assigned_phone"`
	AssignedAt    *time.Time `gorm:"index" json:"assigned_at"`
	RedeemedAt    *time.Time `json:"redeemed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (PrizeCode) TableName() string {
	return "prize_codes"
}

// ShortCode 返回用户可见短码（末尾 4 位）
func (p *PrizeCode) ShortCode() string {
	if p == nil {
		return ""
	}
	return ShortCodeOf(p.Code)
}

// ShortCodeOf 按约定截取完整码末尾作为短码
func ShortCodeOf(code string) string {
	runes := []rune(code)
	if len(runes) <= constants.ShortCodeLength {
		return code
	}
	return string(runes[len(runes)-constants.ShortCodeLength:])
}

// AvailablePrizeCodeStatuses 视为未分配库存的状态集合
func AvailablePrizeCodeStatuses() []string {
	return []string{constants.PrizeCodeStatusUnassigned, constants.PrizeCodeStatusUnused}
}

// IsAvailablePrizeCodeStatus 判断状态是否为未分配库存
func IsAvailablePrizeCodeStatus(status string) bool {
	return status == constants.PrizeCodeStatusUnassigned || status == constants.PrizeCodeStatusUnused
}
