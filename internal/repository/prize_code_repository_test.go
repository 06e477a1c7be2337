package repository

import (
	"context"
	"testing"
	"time"

	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/models"
)

func TestPrizeCodeRepositoryAssignIsConditional(t *testing.T) {
	db := setupLotteryRepositoryTest(t)
	repo := NewPrizeCodeRepository(db)
	ctx := context.Background()
	code := createPrizeCode(t, db, "LOT-A-AAAA0001", constants.RankA, constants.PrizeCodeStatusUnassigned)

	rows, err := repo.Assign(ctx, code.ID, "09011112222", repoTestNow)
	if err != nil || rows != 1 {
		t.Fatalf("first assign want 1 row got %d err=%v", rows, err)
	}
	rows, err = repo.Assign(ctx, code.ID, "09033334444", repoTestNow)
	if err != nil || rows != 0 {
		t.Fatalf("second assign want 0 rows got %d err=%v", rows, err)
	}

	stored, err := repo.GetByCode(ctx, code.Code)
	if err != nil || stored == nil {
		t.Fatalf("reload code failed: %v", err)
	}
	if stored.Status != constants.PrizeCodeStatusAssigned || stored.AssignedPhone == nil || *stored.AssignedPhone != "09011112222" {
		t.Fatalf("assigned phone must be written once: %+v", stored)
	}
}

func TestPrizeCodeRepositoryAvailableIncludesLegacyStatus(t *testing.T) {
	db := setupLotteryRepositoryTest(t)
	repo := NewPrizeCodeRepository(db)
	ctx := context.Background()
	createPrizeCode(t, db, "LOT-B-0003", constants.RankB, constants.PrizeCodeStatusUnused)
	createPrizeCode(t, db, "LOT-B-0001", constants.RankB, constants.PrizeCodeStatusUnassigned)
	createPrizeCode(t, db, "LOT-B-0002", constants.RankB, constants.PrizeCodeStatusRedeemed)
	createPrizeCode(t, db, "LOT-S-0004", constants.RankS, constants.PrizeCodeStatusUnassigned)

	count, err := repo.CountAvailableByRank(ctx, constants.RankB)
	if err != nil || count != 2 {
		t.Fatalf("available b want 2 got %d err=%v", count, err)
	}
	first, err := repo.GetAvailableByRankAt(ctx, constants.RankB, 0)
	if err != nil || first == nil || first.Code != "LOT-B-0001" {
		t.Fatalf("offset 0 should be smallest code, got %+v err=%v", first, err)
	}
	second, err := repo.GetAvailableByRankAt(ctx, constants.RankB, 1)
	if err != nil || second == nil || second.Code != "LOT-B-0003" {
		t.Fatalf("offset 1 should be legacy unused code, got %+v err=%v", second, err)
	}
	missing, err := repo.GetAvailableByRankAt(ctx, constants.RankB, 2)
	if err != nil || missing != nil {
		t.Fatalf("offset past end should return nil, got %+v err=%v", missing, err)
	}

	stock, err := repo.CountStockByRank(ctx)
	if err != nil {
		t.Fatalf("count stock failed: %v", err)
	}
	if stock[constants.RankB] != 2 || stock[constants.RankS] != 1 || stock[constants.RankSS] != 0 {
		t.Fatalf("unexpected stock: %v", stock)
	}
}

func TestPrizeCodeRepositorySuffixAndTransition(t *testing.T) {
	db := setupLotteryRepositoryTest(t)
	repo := NewPrizeCodeRepository(db)
	ctx := context.Background()
	createPrizeCode(t, db, "LOT-A-X_7B", constants.RankA, constants.PrizeCodeStatusAssigned)
	target := createPrizeCode(t, db, "LOT-A-XZ7B", constants.RankA, constants.PrizeCodeStatusAssigned)

	matches, err := repo.ListBySuffix(ctx, "Z7B", constants.PrizeCodeStatusAssigned, 0)
	if err != nil || len(matches) != 1 || matches[0].Code != target.Code {
		t.Fatalf("suffix match mismatch: %+v err=%v", matches, err)
	}
	matches, err = repo.ListBySuffix(ctx, "_7B", "", 0)
	if err != nil || len(matches) != 1 || matches[0].Code != "LOT-A-X_7B" {
		t.Fatalf("underscore must be matched literally: %+v err=%v", matches, err)
	}

	redeemedAt := repoTestNow
	rows, err := repo.TransitionStatus(ctx, target.ID, constants.PrizeCodeStatusAssigned, constants.PrizeCodeStatusRedeemed, &redeemedAt)
	if err != nil || rows != 1 {
		t.Fatalf("redeem want 1 row got %d err=%v", rows, err)
	}
	rows, err = repo.TransitionStatus(ctx, target.ID, constants.PrizeCodeStatusAssigned, constants.PrizeCodeStatusRedeemed, &redeemedAt)
	if err != nil || rows != 0 {
		t.Fatalf("repeat redeem want 0 rows got %d err=%v", rows, err)
	}
	rows, err = repo.TransitionStatus(ctx, target.ID, constants.PrizeCodeStatusRedeemed, constants.PrizeCodeStatusAssigned, nil)
	if err != nil || rows != 1 {
		t.Fatalf("unredeem want 1 row got %d err=%v", rows, err)
	}
	var stored models.PrizeCode
	if err := db.First(&stored, target.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.RedeemedAt != nil {
		t.Fatalf("unredeem should clear redeemed_at")
	}
}

func TestPrizeCodeRepositoryCountAssignedByPhone(t *testing.T) {
	db := setupLotteryRepositoryTest(t)
	repo := NewPrizeCodeRepository(db)
	ctx := context.Background()
	a := createPrizeCode(t, db, "LOT-A-0001", constants.RankA, constants.PrizeCodeStatusUnassigned)
	b := createPrizeCode(t, db, "LOT-B-0002", constants.RankB, constants.PrizeCodeStatusUnassigned)
	c := createPrizeCode(t, db, "LOT-B-0003", constants.RankB, constants.PrizeCodeStatusUnassigned)
	for _, item := range []*models.PrizeCode{a, b} {
		if _, err := repo.Assign(ctx, item.ID, "09011112222", repoTestNow); err != nil {
			t.Fatalf("assign failed: %v", err)
		}
	}
	if _, err := repo.Assign(ctx, c.ID, "09033334444", repoTestNow.Add(-48*time.Hour)); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	counts, err := repo.CountAssignedByPhone(ctx, repoTestNow.Add(-time.Hour), repoTestNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("count assigned failed: %v", err)
	}
	if counts["09011112222"] != 2 || counts["09033334444"] != 0 {
		t.Fatalf("unexpected assigned counts: %v", counts)
	}

	shorts, err := repo.ListShortCodes(ctx)
	if err != nil || len(shorts) != 3 {
		t.Fatalf("list short codes want 3 got %v err=%v", shorts, err)
	}
}
