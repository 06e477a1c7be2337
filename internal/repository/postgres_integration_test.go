//go:build integration
// +build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.DrawTicket{},
		&models.PrizeCode{},
		&models.AdminOperationLog{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresSuffixLookupIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewPrizeCodeRepository(db)
	ctx := context.Background()

	if err := repo.CreateBatch(ctx, []models.PrizeCode{
		{Code: "LOT-A-XYZ7B", BenefitText: "A賞", Rank: constants.RankA, Status: constants.PrizeCodeStatusAssigned},
		{Code: "LOT-A-X%7B", BenefitText: "A賞", Rank: constants.RankA, Status: constants.PrizeCodeStatusAssigned},
	}); err != nil {
		t.Fatalf("create codes failed: %v", err)
	}

	matches, err := repo.ListBySuffix(ctx, "z7b", constants.PrizeCodeStatusAssigned, 0)
	if err != nil {
		t.Fatalf("suffix lookup failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Code != "LOT-A-XYZ7B" {
		t.Fatalf("postgres suffix lookup mismatch: %+v", matches)
	}

	matches, err = repo.ListBySuffix(ctx, "%7B", "", 0)
	if err != nil {
		t.Fatalf("escaped suffix lookup failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Code != "LOT-A-X%7B" {
		t.Fatalf("percent must be matched literally: %+v", matches)
	}
}

func TestPostgresConcurrentAssignSingleWinner(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewPrizeCodeRepository(db)
	ctx := context.Background()

	if err := repo.CreateBatch(ctx, []models.PrizeCode{
		{Code: "LOT-SS-0001", BenefitText: "SS賞", Rank: constants.RankSS, Status: constants.PrizeCodeStatusUnassigned},
	}); err != nil {
		t.Fatalf("create code failed: %v", err)
	}
	code, err := repo.GetByCode(ctx, "LOT-SS-0001")
	if err != nil || code == nil {
		t.Fatalf("load code failed: %v", err)
	}

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := fmt.Sprintf("0900000%04d", i)
			rows, err := repo.Assign(ctx, code.ID, phone, time.Now().UTC())
			if err != nil {
				t.Errorf("assign failed: %v", err)
				return
			}
			mu.Lock()
			winners += rows
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("exactly one assign should win, got %d", winners)
	}
}
