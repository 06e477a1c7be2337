package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/prize-lottery/internal/app"
	"github.com/prize-lottery/internal/config"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if strings.TrimSpace(cfg.Admin.SecretHash) == "" && isWeakSecret(cfg.Admin.Secret) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("后台口令过弱或未配置，请在生产环境中设置 admin.secret 或 admin.secret_hash")
		}
		stdLog.Printf("警告: 后台口令过弱或未配置，建议在生产环境中更换")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + ansiBold + "==============================================" + ansiReset)
	fmt.Println(ansiCyan + ansiBold + "          Prize Lottery API 启动中" + ansiReset)
	fmt.Println(ansiCyan + ansiBold + "==============================================" + ansiReset)
	fmt.Println(ansiDim + "routes: POST /api/draw, POST /api/admin/*, GET /healthz, GET /metrics" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 16 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret") {
		return true
	}
	return false
}
