package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/models"

	"gorm.io/gorm"
)

// DrawTicketRepository 抽选券数据访问接口
type DrawTicketRepository interface {
	Create(ctx context.Context, ticket *models.DrawTicket) error
	GetByID(ctx context.Context, id uint) (*models.DrawTicket, error)
	FindOldestUsable(ctx context.Context, phone string, now time.Time) (*models.DrawTicket, error)
	FindNewestUsable(ctx context.Context, phone string, now time.Time) (*models.DrawTicket, error)
	MarkUsed(ctx context.Context, id uint, usedAt time.Time) (int64, error)
	DeleteUnused(ctx context.Context, id uint) (int64, error)
	CountUsable(ctx context.Context, phone string, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, phone string) (map[string]int64, error)
	CountUsedByPhone(ctx context.Context, from, to time.Time) (map[string]int64, error)
}

// GormDrawTicketRepository GORM 实现
type GormDrawTicketRepository struct {
	db *gorm.DB
}

// NewDrawTicketRepository 创建抽选券仓库
func NewDrawTicketRepository(db *gorm.DB) *GormDrawTicketRepository {
	return &GormDrawTicketRepository{db: db}
}

// Create 写入抽选券
func (r *GormDrawTicketRepository) Create(ctx context.Context, ticket *models.DrawTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// GetByID 根据 ID 获取抽选券
func (r *GormDrawTicketRepository) GetByID(ctx context.Context, id uint) (*models.DrawTicket, error) {
	var ticket models.DrawTicket
	if err := r.db.WithContext(ctx).First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// FindOldestUsable 取最早发放的可用券（先进先出）
func (r *GormDrawTicketRepository) FindOldestUsable(ctx context.Context, phone string, now time.Time) (*models.DrawTicket, error) {
	return r.findUsable(ctx, phone, now, "created_at asc, id asc")
}

// FindNewestUsable 取最新发放的可用券
func (r *GormDrawTicketRepository) FindNewestUsable(ctx context.Context, phone string, now time.Time) (*models.DrawTicket, error) {
	return r.findUsable(ctx, phone, now, "created_at desc, id desc")
}

func (r *GormDrawTicketRepository) findUsable(ctx context.Context, phone string, now time.Time, order string) (*models.DrawTicket, error) {
	var items []models.DrawTicket
	if err := r.usableQuery(ctx, phone, now).
		Order(order).
		Limit(1).
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *GormDrawTicketRepository) usableQuery(ctx context.Context, phone string, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.DrawTicket{}).
		Where("phone = ? AND status = ? AND expires_at >= ?", phone, constants.TicketStatusUnused, now)
}

// MarkUsed 以 status=unused 为前提将抽选券置为已使用，返回影响行数
func (r *GormDrawTicketRepository) MarkUsed(ctx context.Context, id uint, usedAt time.Time) (int64, error) {
	if id == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.DrawTicket{}).
		Where("id = ? AND status = ?", id, constants.TicketStatusUnused).
		Updates(map[string]interface{}{
			"status":     constants.TicketStatusUsed,
			"used_at":    usedAt,
			"updated_at": usedAt,
		})
	return result.RowsAffected, result.Error
}

// DeleteUnused 以 status=unused 为前提删除抽选券，返回影响行数
func (r *GormDrawTicketRepository) DeleteUnused(ctx context.Context, id uint) (int64, error) {
	if id == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, constants.TicketStatusUnused).
		Delete(&models.DrawTicket{})
	return result.RowsAffected, result.Error
}

// CountUsable 统计手机号下未使用且未过期的抽选券
func (r *GormDrawTicketRepository) CountUsable(ctx context.Context, phone string, now time.Time) (int64, error) {
	var count int64
	if err := r.usableQuery(ctx, phone, now).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus 按状态统计手机号下的抽选券（不区分是否过期）
func (r *GormDrawTicketRepository) CountByStatus(ctx context.Context, phone string) (map[string]int64, error) {
	var rows []TicketStatusCount
	if err := r.db.WithContext(ctx).Model(&models.DrawTicket{}).
		Select("status, COUNT(*) AS total").
		Where("phone = ?", phone).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Total
	}
	return result, nil
}

// CountUsedByPhone 统计 [from, to) 区间内按手机号聚合的已使用抽选券
func (r *GormDrawTicketRepository) CountUsedByPhone(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	var rows []PhoneCount
	if err := r.db.WithContext(ctx).Model(&models.DrawTicket{}).
		Select("phone, COUNT(*) AS total").
		Where("status = ? AND used_at >= ? AND used_at < ?", constants.TicketStatusUsed, from, to).
		Group("phone").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Phone] = row.Total
	}
	return result, nil
}
