package worker

import (
	"context"
	"errors"
	"time"

	"github.com/prize-lottery/internal/config"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/queue"

	"github.com/hibiken/asynq"
)

// ErrNothingToRun 队列与周期对账均未启用
var ErrNothingToRun = errors.New("queue and reconcile both disabled")

// Service 异步队列与周期对账服务
// 队列未启用时仅运行周期对账
type Service struct {
	name              string
	server            *asynq.Server
	mux               *asynq.ServeMux
	consumer          *Consumer
	reconcileInterval time.Duration
}

// NewService 创建 worker 服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	s := &Service{
		name:     "worker",
		consumer: consumer,
	}
	if cfg.Reconcile.Enabled && cfg.Reconcile.IntervalMinutes > 0 {
		s.reconcileInterval = time.Duration(cfg.Reconcile.IntervalMinutes) * time.Minute
	}
	if cfg.Queue.Enabled {
		opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	}
	if s.server == nil && s.reconcileInterval <= 0 {
		return nil, ErrNothingToRun
	}
	return s, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("worker not initialized")
	}
	if s.reconcileInterval > 0 && s.consumer != nil && s.consumer.Container != nil && s.consumer.ReconcileService != nil {
		go s.runReconcileLoop(ctx)
	}
	if s.server == nil {
		<-ctx.Done()
		return nil
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runReconcileLoop(ctx context.Context) {
	runOnce := func() {
		// 队列可用时交给队列执行，多实例部署下按周期去重
		if s.server != nil && s.consumer.QueueClient.Enabled() {
			err := s.consumer.QueueClient.EnqueueDrawReconcile(queue.DrawReconcilePayload{}, asynq.Unique(s.reconcileInterval))
			if err == nil || errors.Is(err, asynq.ErrDuplicateTask) {
				return
			}
			logger.Warnw("worker_reconcile_enqueue_failed", "error", err)
		}
		findings, err := s.consumer.ReconcileService.ScanRecent(ctx, 0)
		if err != nil {
			logger.Warnw("worker_reconcile_scan_failed", "error", err)
			return
		}
		logger.Infow("worker_reconcile_scan_completed", "findings", len(findings))
	}
	runOnce()

	ticker := time.NewTicker(s.reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
