package service

import (
	"context"
	"time"

	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/metrics"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/repository"
)

// TicketService 抽选券后台管理服务
type TicketService struct {
	ticketRepo repository.DrawTicketRepository
	auth       *AdminAuthService
	opLog      *AdminOperationLogService
	expiresAt  time.Time
	now        func() time.Time
}

// NewTicketService 创建抽选券服务，expiresAt 为活动统一到期时间
func NewTicketService(ticketRepo repository.DrawTicketRepository, auth *AdminAuthService, opLog *AdminOperationLogService, expiresAt time.Time) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		auth:       auth,
		opLog:      opLog,
		expiresAt:  expiresAt.UTC(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Grant 为手机号发放一张抽选券，非幂等
func (s *TicketService) Grant(ctx context.Context, auth AuthContext, rawPhone string) (*models.DrawTicket, error) {
	if err := s.auth.Authorize(auth); err != nil {
		return nil, err
	}
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return nil, ErrInvalidInput
	}
	now := s.now()
	ticket := &models.DrawTicket{
		Phone:     phone,
		Status:    constants.TicketStatusUnused,
		ExpiresAt: s.expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		metrics.RecordAdminOperation(constants.AdminActionGrantTicket, false)
		return nil, storeFailure("grant_ticket", err)
	}
	metrics.RecordAdminOperation(constants.AdminActionGrantTicket, true)
	logger.Infow("admin_ticket_granted", "phone", phone, "ticket_id", ticket.ID, "request_id", auth.RequestID)
	s.opLog.Record(ctx, auth, AdminOperationInput{
		Action:   constants.AdminActionGrantTicket,
		Phone:    phone,
		TicketID: &ticket.ID,
	})
	return ticket, nil
}

// Revoke 删除手机号下最新一张未使用且未过期的抽选券
func (s *TicketService) Revoke(ctx context.Context, auth AuthContext, rawPhone string) error {
	if err := s.auth.Authorize(auth); err != nil {
		return err
	}
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return ErrInvalidInput
	}
	ticket, err := s.ticketRepo.FindNewestUsable(ctx, phone, s.now())
	if err != nil {
		return storeFailure("find_revocable_ticket", err)
	}
	if ticket == nil {
		return ErrNoRevocableTicket
	}
	deleted, err := s.ticketRepo.DeleteUnused(ctx, ticket.ID)
	if err != nil {
		metrics.RecordAdminOperation(constants.AdminActionRevokeTicket, false)
		return storeFailure("revoke_ticket", err)
	}
	if deleted == 0 {
		// 查询与删除之间已被抽奖消耗
		return ErrNoRevocableTicket
	}
	metrics.RecordAdminOperation(constants.AdminActionRevokeTicket, true)
	logger.Infow("admin_ticket_revoked", "phone", phone, "ticket_id", ticket.ID, "request_id", auth.RequestID)
	s.opLog.Record(ctx, auth, AdminOperationInput{
		Action:   constants.AdminActionRevokeTicket,
		Phone:    phone,
		TicketID: &ticket.ID,
	})
	return nil
}

// Count 统计手机号下可用抽选券数量
func (s *TicketService) Count(ctx context.Context, auth AuthContext, rawPhone string) (int64, error) {
	if err := s.auth.Authorize(auth); err != nil {
		return 0, err
	}
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return 0, ErrInvalidInput
	}
	count, err := s.ticketRepo.CountUsable(ctx, phone, s.now())
	if err != nil {
		return 0, storeFailure("count_tickets", err)
	}
	return count, nil
}
