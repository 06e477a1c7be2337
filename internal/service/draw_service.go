package service

import (
	"context"
	"time"

	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/lottery"
	"github.com/prize-lottery/internal/metrics"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/queue"
	"github.com/prize-lottery/internal/repository"

	"github.com/hibiken/asynq"
)

const defaultDrawMaxAttempts = 5

// RaceLostEnqueuer 竞态失败任务投递
type RaceLostEnqueuer interface {
	EnqueueDrawRaceLost(payload queue.DrawRaceLostPayload, opts ...asynq.Option) error
}

// DrawService 抽奖事务服务
// 先以未分配为前提占用奖品码，再以未使用为前提消耗抽选券，不持有数据库事务
type DrawService struct {
	ticketRepo  repository.DrawTicketRepository
	codeRepo    repository.PrizeCodeRepository
	selector    *lottery.Selector
	enqueuer    RaceLostEnqueuer
	maxAttempts int
	now         func() time.Time
}

// NewDrawService 创建抽奖服务，maxAttempts <= 0 时使用默认值
func NewDrawService(
	ticketRepo repository.DrawTicketRepository,
	codeRepo repository.PrizeCodeRepository,
	selector *lottery.Selector,
	enqueuer RaceLostEnqueuer,
	maxAttempts int,
) *DrawService {
	if maxAttempts <= 0 {
		maxAttempts = defaultDrawMaxAttempts
	}
	return &DrawService{
		ticketRepo:  ticketRepo,
		codeRepo:    codeRepo,
		selector:    selector,
		enqueuer:    enqueuer,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// DrawResult 抽奖结果
type DrawResult struct {
	Code        string `json:"code"`
	BenefitText string `json:"benefit_text"`
	Rank        string `json:"-"`
}

// Draw 消耗一张抽选券并分配一个奖品码
func (s *DrawService) Draw(ctx context.Context, rawPhone string) (*DrawResult, error) {
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		metrics.RecordDrawOutcome(metrics.DrawOutcomeInvalidInput)
		return nil, ErrInvalidInput
	}

	ticket, err := s.ticketRepo.FindOldestUsable(ctx, phone, s.now())
	if err != nil {
		metrics.RecordDrawOutcome(metrics.DrawOutcomeStoreFailure)
		return nil, storeFailure("find_ticket", err)
	}
	if ticket == nil {
		metrics.RecordDrawOutcome(metrics.DrawOutcomeNoTicket)
		return nil, ErrNoTicketAvailable
	}

	target := s.selector.Pick()
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.locateCode(ctx, target)
		if err != nil {
			metrics.RecordDrawOutcome(metrics.DrawOutcomeStoreFailure)
			return nil, err
		}
		if code == nil {
			metrics.RecordDrawOutcome(metrics.DrawOutcomeNoStock)
			return nil, ErrNoStockAvailable
		}

		assignedAt := s.now()
		claimed, err := s.codeRepo.Assign(ctx, code.ID, phone, assignedAt)
		if err != nil {
			metrics.RecordDrawOutcome(metrics.DrawOutcomeStoreFailure)
			return nil, storeFailure("assign_code", err)
		}
		if claimed == 0 {
			metrics.RecordDrawOutcome(metrics.DrawOutcomeClaimConflict)
			logger.Debugw("draw_code_claim_conflict",
				"phone", phone,
				"code", code.Code,
				"rank", code.Rank,
				"attempt", attempt,
			)
			continue
		}

		consumed, err := s.ticketRepo.MarkUsed(ctx, ticket.ID, assignedAt)
		if err != nil {
			logger.Errorw("draw_ticket_consume_failed",
				"phone", phone,
				"ticket_id", ticket.ID,
				"code", code.Code,
				"error", err,
			)
			s.reportRaceLost(phone, code, ticket.ID, assignedAt)
			metrics.RecordDrawOutcome(metrics.DrawOutcomeStoreFailure)
			return nil, storeFailure("consume_ticket", err)
		}
		if consumed == 0 {
			logger.Warnw("draw_ticket_race_lost",
				"phone", phone,
				"ticket_id", ticket.ID,
				"code", code.Code,
				"rank", code.Rank,
			)
			s.reportRaceLost(phone, code, ticket.ID, assignedAt)
			metrics.RecordDrawOutcome(metrics.DrawOutcomeRaceLost)
			return nil, ErrTicketRaceLost
		}

		metrics.RecordDrawOutcome(metrics.DrawOutcomeSuccess)
		metrics.RecordDrawAward(target, code.Rank)
		logger.Infow("draw_completed",
			"phone", phone,
			"ticket_id", ticket.ID,
			"code", code.Code,
			"target_rank", target,
			"rank", code.Rank,
			"attempt", attempt,
		)
		return &DrawResult{
			Code:        code.Code,
			BenefitText: code.BenefitText,
			Rank:        code.Rank,
		}, nil
	}

	metrics.RecordDrawOutcome(metrics.DrawOutcomeNoStock)
	logger.Warnw("draw_attempts_exhausted",
		"phone", phone,
		"target_rank", target,
		"max_attempts", s.maxAttempts,
	)
	return nil, ErrNoStockAvailable
}

// locateCode 沿降级链寻找可用奖品码，等级内均匀随机
func (s *DrawService) locateCode(ctx context.Context, target string) (*models.PrizeCode, error) {
	for _, rank := range lottery.FallbackChain(target) {
		available, err := s.codeRepo.CountAvailableByRank(ctx, rank)
		if err != nil {
			return nil, storeFailure("count_stock", err)
		}
		if available <= 0 {
			continue
		}
		offset := s.selector.Source().IntN(int(available))
		code, err := s.codeRepo.GetAvailableByRankAt(ctx, rank, offset)
		if err != nil {
			return nil, storeFailure("read_stock", err)
		}
		if code == nil && offset > 0 {
			// 计数与读取之间库存被并发消耗，退回首个可用码
			code, err = s.codeRepo.GetAvailableByRankAt(ctx, rank, 0)
			if err != nil {
				return nil, storeFailure("read_stock", err)
			}
		}
		if code != nil {
			return code, nil
		}
	}
	return nil, nil
}

func (s *DrawService) reportRaceLost(phone string, code *models.PrizeCode, ticketID uint, assignedAt time.Time) {
	if s.enqueuer == nil {
		return
	}
	payload := queue.DrawRaceLostPayload{
		Phone:      phone,
		Code:       code.Code,
		Rank:       code.Rank,
		TicketID:   ticketID,
		AssignedAt: assignedAt,
	}
	if err := s.enqueuer.EnqueueDrawRaceLost(payload); err != nil {
		logger.Errorw("draw_race_lost_enqueue_failed",
			"phone", phone,
			"code", code.Code,
			"ticket_id", ticketID,
			"error", err,
		)
	}
}
