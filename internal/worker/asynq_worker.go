package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/provider"
	"github.com/prize-lottery/internal/queue"

	"github.com/hibiken/asynq"
)

// raceLostScanMargin 竞态失败任务对账时在分配时间前后扩展的范围
const raceLostScanMargin = time.Hour

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDrawRaceLost, c.handleDrawRaceLost)
	mux.HandleFunc(queue.TaskDrawReconcile, c.handleDrawReconcile)
}

func (c *Consumer) handleDrawRaceLost(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_draw_race_lost_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DrawRaceLostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_draw_race_lost_unmarshal_failed", "error", err)
		return err
	}
	if payload.Phone == "" || payload.AssignedAt.IsZero() {
		logger.Debugw("worker_draw_race_lost_skip_invalid_payload", "phone", payload.Phone, "code", payload.Code)
		return nil
	}
	if c.ReconcileService == nil {
		logger.Warnw("worker_draw_race_lost_skip_reconcile_nil", "phone", payload.Phone, "code", payload.Code)
		return nil
	}

	from := payload.AssignedAt.Add(-raceLostScanMargin)
	to := payload.AssignedAt.Add(raceLostScanMargin)
	findings, err := c.ReconcileService.Scan(ctx, from, to)
	if err != nil {
		logger.Warnw("worker_draw_race_lost_scan_failed", "phone", payload.Phone, "code", payload.Code, "error", err)
		return err
	}
	for _, f := range findings {
		if f.Phone != payload.Phone {
			continue
		}
		logger.Errorw("worker_draw_race_lost_confirmed",
			"phone", payload.Phone,
			"code", payload.Code,
			"rank", payload.Rank,
			"ticket_id", payload.TicketID,
			"assigned_codes", f.AssignedCodes,
			"used_tickets", f.UsedTickets,
		)
		return nil
	}
	logger.Infow("worker_draw_race_lost_balanced",
		"phone", payload.Phone,
		"code", payload.Code,
		"ticket_id", payload.TicketID,
	)
	return nil
}

func (c *Consumer) handleDrawReconcile(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_draw_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DrawReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_draw_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if c.ReconcileService == nil {
		logger.Warnw("worker_draw_reconcile_skip_reconcile_nil")
		return nil
	}
	var err error
	if payload.From.IsZero() || payload.To.IsZero() {
		_, err = c.ReconcileService.ScanRecent(ctx, 0)
	} else {
		_, err = c.ReconcileService.Scan(ctx, payload.From, payload.To)
	}
	if err != nil {
		logger.Warnw("worker_draw_reconcile_failed", "from", payload.From, "to", payload.To, "error", err)
		return err
	}
	return nil
}
