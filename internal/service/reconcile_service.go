package service

import (
	"context"
	"sort"
	"time"

	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/metrics"
	"github.com/prize-lottery/internal/repository"
)

const (
	defaultReconcileWindow = 24 * time.Hour
	maxReconcileWindow     = 30 * 24 * time.Hour
)

// ReconcileService 对账服务
// 按手机号比较窗口内分配的奖品码数量与消耗的抽选券数量，只报告不回滚
type ReconcileService struct {
	codeRepo      repository.PrizeCodeRepository
	ticketRepo    repository.DrawTicketRepository
	auth          *AdminAuthService
	defaultWindow time.Duration
	now           func() time.Time
}

// NewReconcileService 创建对账服务
func NewReconcileService(codeRepo repository.PrizeCodeRepository, ticketRepo repository.DrawTicketRepository, auth *AdminAuthService, defaultWindow time.Duration) *ReconcileService {
	if defaultWindow <= 0 {
		defaultWindow = defaultReconcileWindow
	}
	return &ReconcileService{
		codeRepo:      codeRepo,
		ticketRepo:    ticketRepo,
		auth:          auth,
		defaultWindow: defaultWindow,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ReconcileFinding 单个手机号的不一致记录
type ReconcileFinding struct {
	Phone         string `json:"phone"`
	AssignedCodes int64  `json:"assigned_codes"`
	UsedTickets   int64  `json:"used_tickets"`
}

// Scan 检查 [from, to) 区间，返回分配码数多于消耗券数的手机号
func (s *ReconcileService) Scan(ctx context.Context, from, to time.Time) ([]ReconcileFinding, error) {
	if !from.Before(to) {
		return nil, ErrInvalidInput
	}
	assigned, err := s.codeRepo.CountAssignedByPhone(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, storeFailure("reconcile_assigned_codes", err)
	}
	used, err := s.ticketRepo.CountUsedByPhone(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, storeFailure("reconcile_used_tickets", err)
	}

	findings := make([]ReconcileFinding, 0)
	for phone, codes := range assigned {
		if codes > used[phone] {
			findings = append(findings, ReconcileFinding{
				Phone:         phone,
				AssignedCodes: codes,
				UsedTickets:   used[phone],
			})
		}
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].Phone < findings[j].Phone })

	metrics.SetReconcileFindings(len(findings))
	for _, f := range findings {
		logger.Warnw("reconcile_code_ticket_mismatch",
			"phone", f.Phone,
			"assigned_codes", f.AssignedCodes,
			"used_tickets", f.UsedTickets,
			"from", from,
			"to", to,
		)
	}
	return findings, nil
}

// ScanRecent 检查截至当前的最近窗口，window <= 0 时使用默认窗口
func (s *ReconcileService) ScanRecent(ctx context.Context, window time.Duration) ([]ReconcileFinding, error) {
	if window <= 0 {
		window = s.defaultWindow
	}
	if window > maxReconcileWindow {
		window = maxReconcileWindow
	}
	to := s.now().Add(time.Second)
	return s.Scan(ctx, to.Add(-window), to)
}

// Reconcile 后台手动触发对账
func (s *ReconcileService) Reconcile(ctx context.Context, auth AuthContext, windowMinutes int) ([]ReconcileFinding, error) {
	if err := s.auth.Authorize(auth); err != nil {
		return nil, err
	}
	if windowMinutes < 0 {
		return nil, ErrInvalidInput
	}
	return s.ScanRecent(ctx, time.Duration(windowMinutes)*time.Minute)
}
