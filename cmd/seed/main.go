package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/prize-lottery/internal/config"
	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/lottery"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/repository"
)

func main() {
	var (
		prefix  string
		imports string
		counts  = map[string]*int{}
		details = map[string]*string{}
	)
	flag.StringVar(&prefix, "prefix", "LOT", "奖品码前缀")
	flag.StringVar(&imports, "import", "", "导入已有库存清单（CSV: code,benefit_text，等级按文案前缀识别）")
	for _, rank := range lottery.Ranks() {
		counts[rank] = flag.Int(rank, 0, "生成 "+strings.ToUpper(rank)+" 等级奖品码数量")
		details[rank] = flag.String("benefit-"+rank, "", strings.ToUpper(rank)+" 等级权益说明（自动加等级前缀）")
	}
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewPrizeCodeRepository(models.DB)
	existing, err := repo.ListShortCodes(ctx)
	if err != nil {
		stdLog.Fatalf("Failed to load existing short codes: %v", err)
	}
	gen := lottery.NewCodeGenerator(prefix, existing)

	total := 0
	if imports != "" {
		n, err := importInventory(ctx, repo, gen, imports)
		if err != nil {
			stdLog.Fatalf("Failed to import inventory: %v", err)
		}
		total += n
	}
	for _, rank := range lottery.Ranks() {
		n := *counts[rank]
		if n <= 0 {
			continue
		}
		items := make([]models.PrizeCode, 0, n)
		for i := 0; i < n; i++ {
			code, err := gen.Next(rank)
			if err != nil {
				stdLog.Fatalf("Failed to generate %s code: %v", rank, err)
			}
			items = append(items, models.PrizeCode{
				Code:        code,
				BenefitText: benefitText(rank, *details[rank], code),
				Rank:        rank,
				Status:      constants.PrizeCodeStatusUnassigned,
			})
		}
		if err := repo.CreateBatch(ctx, items); err != nil {
			stdLog.Fatalf("Failed to insert %s codes: %v", rank, err)
		}
		logger.Infow("seed_prize_codes_created", "rank", rank, "count", n)
		total += n
	}

	if total == 0 {
		stdLog.Printf("No codes requested, use -ss/-s/-a/-b to set counts or -import to load a list")
		return
	}
	logger.Infow("seed_completed", "total", total)
}

func benefitText(rank, detail, code string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = code
	}
	return lottery.BenefitPrefix(rank) + " " + detail
}

func importInventory(ctx context.Context, repo repository.PrizeCodeRepository, gen *lottery.CodeGenerator, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	rows, err := lottery.ParseInventory(file)
	if err != nil {
		return 0, err
	}
	items := make([]models.PrizeCode, 0, len(rows))
	for _, row := range rows {
		if err := gen.Reserve(row.Code); err != nil {
			return 0, err
		}
		items = append(items, models.PrizeCode{
			Code:        row.Code,
			BenefitText: row.BenefitText,
			Rank:        row.Rank,
			Status:      constants.PrizeCodeStatusUnassigned,
		})
	}
	if err := repo.CreateBatch(ctx, items); err != nil {
		return 0, err
	}
	logger.Infow("seed_inventory_imported", "path", path, "count", len(items))
	return len(items), nil
}
