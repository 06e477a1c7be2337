package models

import (
	"time"

	"github.com/prize-lottery/internal/constants"
)

// DrawTicket 抽选券
// 与奖品码之间只通过手机号关联，不建立外键
type DrawTicket struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Phone     string     `gorm:"type:varchar(32);index:idx_draw_tickets_phone_status;not null" json:"phone"`
	Status    string     `gorm:"type:varchar(16);index:idx_draw_tickets_phone_status;not null" json:"status"` // unused / used
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (DrawTicket) TableName() string {
	return "draw_tickets"
}

// Usable 判断抽选券在 now 时刻是否可用于抽奖
func (t *DrawTicket) Usable(now time.Time) bool {
	if t == nil {
		return false
	}
	return t.Status == constants.TicketStatusUnused && !t.ExpiresAt.Before(now)
}
