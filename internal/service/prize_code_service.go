package service

import (
	"context"
	"strings"
	"time"

	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/lottery"
	"github.com/prize-lottery/internal/metrics"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/repository"
)

// PrizeCodeService 奖品码后台管理服务
type PrizeCodeService struct {
	codeRepo   repository.PrizeCodeRepository
	ticketRepo repository.DrawTicketRepository
	auth       *AdminAuthService
	opLog      *AdminOperationLogService
	now        func() time.Time
}

// NewPrizeCodeService 创建奖品码服务
func NewPrizeCodeService(codeRepo repository.PrizeCodeRepository, ticketRepo repository.DrawTicketRepository, auth *AdminAuthService, opLog *AdminOperationLogService) *PrizeCodeService {
	return &PrizeCodeService{
		codeRepo:   codeRepo,
		ticketRepo: ticketRepo,
		auth:       auth,
		opLog:      opLog,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// StockTally 各等级未分配库存
type StockTally struct {
	SS    int64 `json:"ss"`
	S     int64 `json:"s"`
	A     int64 `json:"a"`
	B     int64 `json:"b"`
	Total int64 `json:"total"`
}

// TicketSummary 手机号抽选券汇总
type TicketSummary struct {
	Unused int64 `json:"unused"`
	Used   int64 `json:"used"`
	Total  int64 `json:"total"`
}

// LookupCode 查询结果中的奖品码
type LookupCode struct {
	Code        string     `json:"code"`
	Last4       string     `json:"last4"`
	BenefitText string     `json:"benefit_text"`
	Status      string     `json:"status"`
	AssignedAt  *time.Time `json:"assigned_at"`
}

// LookupResult 顾客查询结果
type LookupResult struct {
	Phone   string        `json:"phone"`
	Tickets TicketSummary `json:"tickets"`
	Codes   []LookupCode  `json:"codes"`
}

// Redeem 将已分配奖品码标记为已核销
func (s *PrizeCodeService) Redeem(ctx context.Context, auth AuthContext, rawCode string) error {
	return s.setStatus(ctx, auth, rawCode,
		constants.PrizeCodeStatusAssigned,
		constants.PrizeCodeStatusRedeemed,
		constants.AdminActionRedeemCode,
	)
}

// Unredeem 撤销核销，恢复为已分配
func (s *PrizeCodeService) Unredeem(ctx context.Context, auth AuthContext, rawCode string) error {
	return s.setStatus(ctx, auth, rawCode,
		constants.PrizeCodeStatusRedeemed,
		constants.PrizeCodeStatusAssigned,
		constants.AdminActionUnredeemCode,
	)
}

func (s *PrizeCodeService) setStatus(ctx context.Context, auth AuthContext, rawCode, from, to, action string) error {
	if err := s.auth.Authorize(auth); err != nil {
		return err
	}
	input := normalizeCodeInput(rawCode)
	if input == "" {
		return ErrInvalidInput
	}
	code, err := s.findCode(ctx, input, from)
	if err != nil {
		return err
	}
	if code == nil {
		return ErrCodeNotFound
	}

	var redeemedAt *time.Time
	if to == constants.PrizeCodeStatusRedeemed {
		now := s.now()
		redeemedAt = &now
	}
	updated, err := s.codeRepo.TransitionStatus(ctx, code.ID, from, to, redeemedAt)
	if err != nil {
		metrics.RecordAdminOperation(action, false)
		return storeFailure(action, err)
	}
	if updated == 0 {
		return ErrCodeNotFound
	}
	metrics.RecordAdminOperation(action, true)
	phone := ""
	if code.AssignedPhone != nil {
		phone = *code.AssignedPhone
	}
	logger.Infow("admin_code_status_changed",
		"code", code.Code,
		"from", from,
		"to", to,
		"request_id", auth.RequestID,
	)
	s.opLog.Record(ctx, auth, AdminOperationInput{
		Action: action,
		Phone:  phone,
		Code:   code.Code,
	})
	return nil
}

// findCode 先精确匹配，再按末尾匹配，均限定当前状态
func (s *PrizeCodeService) findCode(ctx context.Context, input, status string) (*models.PrizeCode, error) {
	exact, err := s.codeRepo.GetByCodeAndStatus(ctx, input, status)
	if err != nil {
		return nil, storeFailure("find_code", err)
	}
	if exact != nil {
		return exact, nil
	}
	matches, err := s.codeRepo.ListBySuffix(ctx, input, status, 2)
	if err != nil {
		return nil, storeFailure("find_code_by_suffix", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		logger.Warnw("prize_code_suffix_ambiguous",
			"suffix", input,
			"status", status,
			"chosen", matches[0].Code,
		)
	}
	return &matches[0], nil
}

// StockTally 统计各等级未分配库存
func (s *PrizeCodeService) StockTally(ctx context.Context, auth AuthContext) (*StockTally, error) {
	if err := s.auth.Authorize(auth); err != nil {
		return nil, err
	}
	counts, err := s.codeRepo.CountStockByRank(ctx)
	if err != nil {
		return nil, storeFailure("stock_tally", err)
	}
	tally := &StockTally{
		SS: counts[constants.RankSS],
		S:  counts[constants.RankS],
		A:  counts[constants.RankA],
		B:  counts[constants.RankB],
	}
	for _, rank := range lottery.Ranks() {
		tally.Total += counts[rank]
	}
	return tally, nil
}

// Lookup 按完整奖品码、手机号或奖品码末 4 位查询顾客
func (s *PrizeCodeService) Lookup(ctx context.Context, auth AuthContext, query string) (*LookupResult, error) {
	if err := s.auth.Authorize(auth); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	phone, matched, err := s.phoneByFullCode(ctx, normalizeCodeInput(trimmed))
	if err != nil {
		return nil, err
	}
	switch {
	case matched:
	case isPhoneQuery(trimmed):
		phone = NormalizePhone(trimmed)
	default:
		resolved, err := s.phoneByShortCode(ctx, lastRunes(normalizeCodeInput(trimmed), constants.ShortCodeLength))
		if err != nil {
			return nil, err
		}
		phone = resolved
	}
	if phone == "" {
		return nil, ErrLookupNotFound
	}

	counts, err := s.ticketRepo.CountByStatus(ctx, phone)
	if err != nil {
		return nil, storeFailure("lookup_tickets", err)
	}
	summary := TicketSummary{
		Unused: counts[constants.TicketStatusUnused],
		Used:   counts[constants.TicketStatusUsed],
	}
	summary.Total = summary.Unused + summary.Used

	codes, err := s.codeRepo.ListByAssignedPhone(ctx, phone, "")
	if err != nil {
		return nil, storeFailure("lookup_codes", err)
	}
	result := &LookupResult{
		Phone:   phone,
		Tickets: summary,
		Codes:   make([]LookupCode, 0, len(codes)),
	}
	for i := range codes {
		result.Codes = append(result.Codes, LookupCode{
			Code:        codes[i].Code,
			Last4:       codes[i].ShortCode(),
			BenefitText: codes[i].BenefitText,
			Status:      codes[i].Status,
			AssignedAt:  codes[i].AssignedAt,
		})
	}
	return result, nil
}

// phoneByFullCode 完整码精确命中时返回其归属手机号，未分配的码归属为空
func (s *PrizeCodeService) phoneByFullCode(ctx context.Context, code string) (string, bool, error) {
	item, err := s.codeRepo.GetByCodeAndStatus(ctx, code, "")
	if err != nil {
		return "", false, storeFailure("lookup_full_code", err)
	}
	if item == nil {
		return "", false, nil
	}
	if item.AssignedPhone == nil {
		return "", true, nil
	}
	return *item.AssignedPhone, true, nil
}

func (s *PrizeCodeService) phoneByShortCode(ctx context.Context, short string) (string, error) {
	matches, err := s.codeRepo.ListBySuffix(ctx, short, "", 0)
	if err != nil {
		return "", storeFailure("lookup_short_code", err)
	}
	for _, item := range matches {
		if item.AssignedPhone != nil && *item.AssignedPhone != "" {
			return *item.AssignedPhone, nil
		}
	}
	return "", nil
}

// ListAssignedCodes 列出手机号下尚未核销的奖品码（新到旧）
func (s *PrizeCodeService) ListAssignedCodes(ctx context.Context, auth AuthContext, rawPhone string) ([]models.PrizeCode, error) {
	if err := s.auth.Authorize(auth); err != nil {
		return nil, err
	}
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return nil, ErrInvalidInput
	}
	codes, err := s.codeRepo.ListByAssignedPhone(ctx, phone, constants.PrizeCodeStatusAssigned)
	if err != nil {
		return nil, storeFailure("list_assigned_codes", err)
	}
	return codes, nil
}
