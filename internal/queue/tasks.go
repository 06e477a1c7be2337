package queue

import (
	"encoding/json"
	"time"

	"github.com/prize-lottery/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskDrawRaceLost 抽奖竞态失败后的对账任务
	TaskDrawRaceLost = constants.TaskDrawRaceLost
	// TaskDrawReconcile 周期对账任务
	TaskDrawReconcile = constants.TaskDrawReconcile
)

// DrawRaceLostPayload 竞态失败任务载荷
// 奖品码已分配但抽选券未能消耗，需要人工核对
type DrawRaceLostPayload struct {
	Phone      string    `json:"phone"`
	Code       string    `json:"code"`
	Rank       string    `json:"rank"`
	TicketID   uint      `json:"ticket_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// DrawReconcilePayload 对账任务载荷
type DrawReconcilePayload struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDrawRaceLostTask 创建竞态失败任务
func NewDrawRaceLostTask(payload DrawRaceLostPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDrawRaceLost, body), nil
}

// NewDrawReconcileTask 创建对账任务
func NewDrawReconcileTask(payload DrawReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDrawReconcile, body), nil
}
