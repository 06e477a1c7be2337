package service

import (
	"context"
	"strings"

	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/repository"
)

// AdminOperationLogService 后台操作日志服务
type AdminOperationLogService struct {
	repo repository.AdminOperationLogRepository
	auth *AdminAuthService
}

// NewAdminOperationLogService 创建后台操作日志服务
func NewAdminOperationLogService(repo repository.AdminOperationLogRepository, auth *AdminAuthService) *AdminOperationLogService {
	return &AdminOperationLogService{repo: repo, auth: auth}
}

// AdminOperationInput 单条操作日志输入
type AdminOperationInput struct {
	Action   string
	Phone    string
	Code     string
	TicketID *uint
}

// Record 写入操作日志，失败只记录日志不影响已完成的变更
func (s *AdminOperationLogService) Record(ctx context.Context, auth AuthContext, input AdminOperationInput) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.AdminOperationLog{
		Action:    input.Action,
		Phone:     input.Phone,
		Code:      input.Code,
		TicketID:  input.TicketID,
		RequestID: strings.TrimSpace(auth.RequestID),
		ClientIP:  strings.TrimSpace(auth.ClientIP),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Warnw("admin_operation_log_write_failed",
			"action", input.Action,
			"phone", input.Phone,
			"code", input.Code,
			"request_id", auth.RequestID,
			"error", err,
		)
	}
}

// List 分页查询操作日志
func (s *AdminOperationLogService) List(ctx context.Context, auth AuthContext, filter repository.AdminOperationLogListFilter) ([]models.AdminOperationLog, int64, error) {
	if err := s.auth.Authorize(auth); err != nil {
		return nil, 0, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.Phone != "" {
		filter.Phone = NormalizePhone(filter.Phone)
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storeFailure("list_operation_logs", err)
	}
	return items, total, nil
}
