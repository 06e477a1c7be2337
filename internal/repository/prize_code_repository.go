package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/models"

	"gorm.io/gorm"
)

// PrizeCodeRepository 奖品码库存数据访问接口
type PrizeCodeRepository interface {
	CreateBatch(ctx context.Context, items []models.PrizeCode) error
	GetByCode(ctx context.Context, code string) (*models.PrizeCode, error)
	GetByCodeAndStatus(ctx context.Context, code, status string) (*models.PrizeCode, error)
	ListBySuffix(ctx context.Context, suffix, status string, limit int) ([]models.PrizeCode, error)
	ListByAssignedPhone(ctx context.Context, phone, status string) ([]models.PrizeCode, error)
	CountAvailableByRank(ctx context.Context, rank string) (int64, error)
	GetAvailableByRankAt(ctx context.Context, rank string, offset int) (*models.PrizeCode, error)
	Assign(ctx context.Context, id uint, phone string, assignedAt time.Time) (int64, error)
	TransitionStatus(ctx context.Context, id uint, from, to string, redeemedAt *time.Time) (int64, error)
	CountStockByRank(ctx context.Context) (map[string]int64, error)
	CountAssignedByPhone(ctx context.Context, from, to time.Time) (map[string]int64, error)
	ListShortCodes(ctx context.Context) ([]string, error)
}

// GormPrizeCodeRepository GORM 实现
type GormPrizeCodeRepository struct {
	db *gorm.DB
}

// NewPrizeCodeRepository 创建奖品码仓库
func NewPrizeCodeRepository(db *gorm.DB) *GormPrizeCodeRepository {
	return &GormPrizeCodeRepository{db: db}
}

// CreateBatch 批量写入奖品码
func (r *GormPrizeCodeRepository) CreateBatch(ctx context.Context, items []models.PrizeCode) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, 500).Error
}

// GetByCode 根据完整码获取
func (r *GormPrizeCodeRepository) GetByCode(ctx context.Context, code string) (*models.PrizeCode, error) {
	return r.GetByCodeAndStatus(ctx, code, "")
}

// GetByCodeAndStatus 根据完整码与状态获取，status 为空时不限状态
func (r *GormPrizeCodeRepository) GetByCodeAndStatus(ctx context.Context, code, status string) (*models.PrizeCode, error) {
	query := r.db.WithContext(ctx).Where("code = ?", code)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var item models.PrizeCode
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListBySuffix 末尾匹配查询奖品码，按 code 升序保证结果稳定
func (r *GormPrizeCodeRepository) ListBySuffix(ctx context.Context, suffix, status string, limit int) ([]models.PrizeCode, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.PrizeCode{}).Where(suffixLikeCondition(db, "code"), suffixLikePattern(suffix))
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var items []models.PrizeCode
	if err := query.Order("code asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByAssignedPhone 获取分配给手机号的奖品码（新到旧），status 为空时不限状态
func (r *GormPrizeCodeRepository) ListByAssignedPhone(ctx context.Context, phone, status string) ([]models.PrizeCode, error) {
	query := r.db.WithContext(ctx).Model(&models.PrizeCode{}).Where("assigned_phone = ?", phone)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var items []models.PrizeCode
	if err := query.Order("assigned_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormPrizeCodeRepository) availableQuery(ctx context.Context, rank string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PrizeCode{}).
		Where("prize_rank = ? AND status IN ? AND assigned_phone IS NULL", rank, models.AvailablePrizeCodeStatuses())
}

// CountAvailableByRank 统计等级下的未分配库存
func (r *GormPrizeCodeRepository) CountAvailableByRank(ctx context.Context, rank string) (int64, error) {
	var count int64
	if err := r.availableQuery(ctx, rank).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetAvailableByRankAt 按 code 排序取等级下第 offset 个未分配奖品码
func (r *GormPrizeCodeRepository) GetAvailableByRankAt(ctx context.Context, rank string, offset int) (*models.PrizeCode, error) {
	if offset < 0 {
		offset = 0
	}
	var items []models.PrizeCode
	if err := r.availableQuery(ctx, rank).
		Order("code asc").
		Offset(offset).
		Limit(1).
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Assign 以未分配为前提占用奖品码，assigned_phone 只会写入一次，返回影响行数
func (r *GormPrizeCodeRepository) Assign(ctx context.Context, id uint, phone string, assignedAt time.Time) (int64, error) {
	if id == 0 || phone == "" {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.PrizeCode{}).
		Where("id = ? AND status IN ? AND assigned_phone IS NULL", id, models.AvailablePrizeCodeStatuses()).
		Updates(map[string]interface{}{
			"status":         constants.PrizeCodeStatusAssigned,
			"assigned_phone": phone,
			"assigned_at":    assignedAt,
			"updated_at":     assignedAt,
		})
	return result.RowsAffected, result.Error
}

// TransitionStatus 以当前状态为前提切换奖品码状态，并写入（或清空）核销时间
func (r *GormPrizeCodeRepository) TransitionStatus(ctx context.Context, id uint, from, to string, redeemedAt *time.Time) (int64, error) {
	if id == 0 || from == "" || to == "" {
		return 0, nil
	}
	updates := map[string]interface{}{
		"status":      to,
		"redeemed_at": nil,
		"updated_at":  time.Now().UTC(),
	}
	if redeemedAt != nil {
		updates["redeemed_at"] = *redeemedAt
		updates["updated_at"] = *redeemedAt
	}
	result := r.db.WithContext(ctx).Model(&models.PrizeCode{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CountStockByRank 按等级统计未分配库存，直接读库不走缓存
func (r *GormPrizeCodeRepository) CountStockByRank(ctx context.Context) (map[string]int64, error) {
	var rows []RankCount
	if err := r.db.WithContext(ctx).Model(&models.PrizeCode{}).
		Select("prize_rank, COUNT(*) AS total").
		Where("status IN ? AND assigned_phone IS NULL", models.AvailablePrizeCodeStatuses()).
		Group("prize_rank").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Rank] = row.Total
	}
	return result, nil
}

// CountAssignedByPhone 统计 [from, to) 区间内按手机号聚合的已分配奖品码（含已核销）
func (r *GormPrizeCodeRepository) CountAssignedByPhone(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	var rows []PhoneCount
	if err := r.db.WithContext(ctx).Model(&models.PrizeCode{}).
		Select("assigned_phone AS phone, COUNT(*) AS total").
		Where("assigned_phone IS NOT NULL AND assigned_at >= ? AND assigned_at < ?", from, to).
		Where("status IN ?", []string{constants.PrizeCodeStatusAssigned, constants.PrizeCodeStatusRedeemed}).
		Group("assigned_phone").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Phone] = row.Total
	}
	return result, nil
}

// ListShortCodes 返回全部奖品码，供生成新码时校验短码唯一
func (r *GormPrizeCodeRepository) ListShortCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&models.PrizeCode{}).Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	shorts := make([]string, 0, len(codes))
	for _, code := range codes {
		shorts = append(shorts, models.ShortCodeOf(code))
	}
	return shorts, nil
}
