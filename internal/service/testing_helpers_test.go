package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/lottery"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/queue"
	"github.com/prize-lottery/internal/repository"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testAdminSecret = "store-secret"

var testNow = time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)
var testExpiry = time.Date(2026, 4, 30, 14, 59, 59, 0, time.UTC)

type stubSource struct {
	value float64
}

func (s stubSource) Float64() float64 { return s.value }
func (s stubSource) IntN(n int) int   { return 0 }

type recordingEnqueuer struct {
	mu       sync.Mutex
	payloads []queue.DrawRaceLostPayload
}

func (r *recordingEnqueuer) EnqueueDrawRaceLost(payload queue.DrawRaceLostPayload, _ ...asynq.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingEnqueuer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

type lotteryFixture struct {
	db         *gorm.DB
	ticketRepo *repository.GormDrawTicketRepository
	codeRepo   *repository.GormPrizeCodeRepository
	logRepo    *repository.GormAdminOperationLogRepository
	auth       *AdminAuthService
	opLog      *AdminOperationLogService
	tickets    *TicketService
	codes      *PrizeCodeService
	reconcile  *ReconcileService
	enqueuer   *recordingEnqueuer
}

func setupLotteryTest(t *testing.T) *lotteryFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:lottery_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := models.OpenDB("sqlite", dsn, gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 单连接串行化 sqlite 写入，逻辑层竞态仍由条件更新裁决
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	f := &lotteryFixture{
		db:         db,
		ticketRepo: repository.NewDrawTicketRepository(db),
		codeRepo:   repository.NewPrizeCodeRepository(db),
		logRepo:    repository.NewAdminOperationLogRepository(db),
		auth:       NewAdminAuthService(testAdminSecret, ""),
		enqueuer:   &recordingEnqueuer{},
	}
	f.opLog = NewAdminOperationLogService(f.logRepo, f.auth)
	f.tickets = NewTicketService(f.ticketRepo, f.auth, f.opLog, testExpiry)
	f.tickets.now = func() time.Time { return testNow }
	f.codes = NewPrizeCodeService(f.codeRepo, f.ticketRepo, f.auth, f.opLog)
	f.codes.now = func() time.Time { return testNow }
	f.reconcile = NewReconcileService(f.codeRepo, f.ticketRepo, f.auth, 24*time.Hour)
	f.reconcile.now = func() time.Time { return testNow }
	return f
}

func (f *lotteryFixture) drawService(t *testing.T, x float64, ticketRepo repository.DrawTicketRepository) *DrawService {
	t.Helper()
	selector, err := lottery.NewSelector(lottery.DefaultWeights(), stubSource{value: x})
	if err != nil {
		t.Fatalf("new selector failed: %v", err)
	}
	if ticketRepo == nil {
		ticketRepo = f.ticketRepo
	}
	svc := NewDrawService(ticketRepo, f.codeRepo, selector, f.enqueuer, 0)
	svc.now = func() time.Time { return testNow }
	return svc
}

func adminAuth() AuthContext {
	return AuthContext{Secret: testAdminSecret, RequestID: "req-test", ClientIP: "127.0.0.1"}
}

func seedTicket(t *testing.T, db *gorm.DB, phone string, createdAt, expiresAt time.Time) *models.DrawTicket {
	t.Helper()
	ticket := &models.DrawTicket{
		Phone:     phone,
		Status:    constants.TicketStatusUnused,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := db.Create(ticket).Error; err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	return ticket
}

func seedCode(t *testing.T, db *gorm.DB, code, rank, status string) *models.PrizeCode {
	t.Helper()
	item := &models.PrizeCode{
		Code:        code,
		BenefitText: lottery.BenefitPrefix(rank) + " " + code,
		Rank:        rank,
		Status:      status,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create code failed: %v", err)
	}
	return item
}

func seedAssignedCode(t *testing.T, db *gorm.DB, code, rank, phone string, assignedAt time.Time) *models.PrizeCode {
	t.Helper()
	item := seedCode(t, db, code, rank, constants.PrizeCodeStatusUnassigned)
	if err := db.Model(item).Updates(map[string]interface{}{
		"status":         constants.PrizeCodeStatusAssigned,
		"assigned_phone": phone,
		"assigned_at":    assignedAt,
	}).Error; err != nil {
		t.Fatalf("assign code failed: %v", err)
	}
	return item
}

func reloadTicket(t *testing.T, db *gorm.DB, id uint) models.DrawTicket {
	t.Helper()
	var ticket models.DrawTicket
	if err := db.First(&ticket, id).Error; err != nil {
		t.Fatalf("reload ticket failed: %v", err)
	}
	return ticket
}

func reloadCode(t *testing.T, db *gorm.DB, code string) models.PrizeCode {
	t.Helper()
	var item models.PrizeCode
	if err := db.Where("code = ?", code).First(&item).Error; err != nil {
		t.Fatalf("reload code failed: %v", err)
	}
	return item
}
