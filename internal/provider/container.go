package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/prize-lottery/internal/cache"
	"github.com/prize-lottery/internal/config"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/lottery"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/queue"
	"github.com/prize-lottery/internal/repository"
	"github.com/prize-lottery/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Selector    *lottery.Selector

	// Repositories
	DrawTicketRepo   repository.DrawTicketRepository
	PrizeCodeRepo    repository.PrizeCodeRepository
	OperationLogRepo repository.AdminOperationLogRepository

	// Services
	AdminAuthService    *service.AdminAuthService
	OperationLogService *service.AdminOperationLogService
	DrawService         *service.DrawService
	TicketService       *service.TicketService
	PrizeCodeService    *service.PrizeCodeService
	ReconcileService    *service.ReconcileService
}

// NewContainer 初始化容器，抽奖概率或活动配置非法时返回错误
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	weights, err := lottery.ParseWeights(cfg.Draw.Weights)
	if err != nil {
		return nil, fmt.Errorf("invalid draw.weights: %w", err)
	}
	selector, err := lottery.NewSelector(weights, nil)
	if err != nil {
		return nil, fmt.Errorf("init rank selector: %w", err)
	}
	expiresAt, err := cfg.Campaign.TicketExpiry()
	if err != nil {
		return nil, err
	}

	// 初始化限流用 Redis
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Selector:    selector,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices(expiresAt)

	if !c.AdminAuthService.Configured() {
		logger.Warnw("provider_admin_secret_missing", "hint", "set admin.secret or admin.secret_hash to enable admin routes")
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := models.DB
	c.DrawTicketRepo = repository.NewDrawTicketRepository(db)
	c.PrizeCodeRepo = repository.NewPrizeCodeRepository(db)
	c.OperationLogRepo = repository.NewAdminOperationLogRepository(db)
}

func (c *Container) initServices(expiresAt time.Time) {
	c.AdminAuthService = service.NewAdminAuthService(c.Config.Admin.Secret, c.Config.Admin.SecretHash)
	c.OperationLogService = service.NewAdminOperationLogService(c.OperationLogRepo, c.AdminAuthService)

	var enqueuer service.RaceLostEnqueuer
	if c.QueueClient != nil {
		enqueuer = c.QueueClient
	}
	c.DrawService = service.NewDrawService(c.DrawTicketRepo, c.PrizeCodeRepo, c.Selector, enqueuer, c.Config.Draw.MaxAttempts)
	c.TicketService = service.NewTicketService(c.DrawTicketRepo, c.AdminAuthService, c.OperationLogService, expiresAt)
	c.PrizeCodeService = service.NewPrizeCodeService(c.PrizeCodeRepo, c.DrawTicketRepo, c.AdminAuthService, c.OperationLogService)
	c.ReconcileService = service.NewReconcileService(
		c.PrizeCodeRepo,
		c.DrawTicketRepo,
		c.AdminAuthService,
		time.Duration(c.Config.Reconcile.WindowMinutes)*time.Minute,
	)
}

// Close 释放队列客户端与 Redis 连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.QueueClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("queue client: %w", err))
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis: %w", err))
	}
	return errors.Join(errs...)
}
