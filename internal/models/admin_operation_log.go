package models

import "time"

// AdminOperationLog 后台变更操作日志
// 说明：记录发券、撤券、核销与撤销核销，便于人工对账。
type AdminOperationLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Action    string    `gorm:"type:varchar(32);index;not null" json:"action"`
	Phone     string    `gorm:"type:varchar(32);index;not null;default:''" json:"phone"`
	Code      string    `gorm:"type:varchar(64);index;not null;default:''" json:"code"`
	TicketID  *uint     `gorm:"index" json:"ticket_id,omitempty"`
	RequestID string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	ClientIP  string    `gorm:"type:varchar(64);not null;default:''" json:"client_ip"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AdminOperationLog) TableName() string {
	return "admin_operation_logs"
}
