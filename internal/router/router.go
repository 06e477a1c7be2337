package router

import (
	"github.com/prize-lottery/internal/cache"
	"github.com/prize-lottery/internal/config"
	adminhandlers "github.com/prize-lottery/internal/http/handlers/admin"
	publichandlers "github.com/prize-lottery/internal/http/handlers/public"
	"github.com/prize-lottery/internal/i18n"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/metrics"
	"github.com/prize-lottery/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	i18n.SetDefaultLocale(cfg.Server.Locale)
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	drawRule := RateLimitRule{
		Prefix:        cache.BuildKey("rate:draw"),
		WindowSeconds: cfg.Security.DrawRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.DrawRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(metrics.GinMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", publicHandler.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/draw", RateLimitMiddleware(cache.Client(), drawRule, KeyByIPAndPhone("phone")), publicHandler.Draw)

		admin := api.Group("/admin")
		{
			admin.POST("/add-ticket", adminHandler.AddTicket)
			admin.POST("/remove-ticket", adminHandler.RemoveTicket)
			admin.POST("/ticket-count", adminHandler.TicketCount)
			admin.POST("/redeem", adminHandler.Redeem)
			admin.POST("/unredeem", adminHandler.Unredeem)
			admin.POST("/stock", adminHandler.Stock)
			admin.POST("/lookup", adminHandler.Lookup)
			admin.POST("/user", adminHandler.UserCodes)
			admin.POST("/reconcile", adminHandler.Reconcile)
			admin.POST("/operation-logs", adminHandler.OperationLogs)
		}
	}

	return r
}
