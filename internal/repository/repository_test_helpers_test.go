package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/prize-lottery/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var repoTestNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func setupLotteryRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate lottery models failed: %v", err)
	}
	return db
}

func createPrizeCode(t *testing.T, db *gorm.DB, code, rank, status string) *models.PrizeCode {
	t.Helper()
	item := &models.PrizeCode{Code: code, BenefitText: code, Rank: rank, Status: status}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create prize code failed: %v", err)
	}
	return item
}

func createDrawTicket(t *testing.T, db *gorm.DB, phone, status string, createdAt, expiresAt time.Time) *models.DrawTicket {
	t.Helper()
	ticket := &models.DrawTicket{
		Phone:     phone,
		Status:    status,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := db.Create(ticket).Error; err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	return ticket
}
