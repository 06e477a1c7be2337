package repository

import (
	"context"
	"strings"

	"github.com/prize-lottery/internal/models"

	"gorm.io/gorm"
)

// AdminOperationLogRepository 后台操作日志数据访问接口
type AdminOperationLogRepository interface {
	Create(ctx context.Context, log *models.AdminOperationLog) error
	List(ctx context.Context, filter AdminOperationLogListFilter) ([]models.AdminOperationLog, int64, error)
}

// GormAdminOperationLogRepository GORM 实现
type GormAdminOperationLogRepository struct {
	db *gorm.DB
}

// NewAdminOperationLogRepository 创建后台操作日志仓库
func NewAdminOperationLogRepository(db *gorm.DB) *GormAdminOperationLogRepository {
	return &GormAdminOperationLogRepository{db: db}
}

// Create 写入操作日志
func (r *GormAdminOperationLogRepository) Create(ctx context.Context, log *models.AdminOperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// List 分页查询操作日志（新到旧）
func (r *GormAdminOperationLogRepository) List(ctx context.Context, filter AdminOperationLogListFilter) ([]models.AdminOperationLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AdminOperationLog{})
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if phone := strings.TrimSpace(filter.Phone); phone != "" {
		query = query.Where("phone = ?", phone)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where("code = ?", code)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.AdminOperationLog
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Order("id desc").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
