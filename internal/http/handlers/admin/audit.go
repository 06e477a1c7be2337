package admin

import (
	"github.com/prize-lottery/internal/http/handlers/shared"
	"github.com/prize-lottery/internal/http/response"
	"github.com/prize-lottery/internal/repository"
	"github.com/prize-lottery/internal/service"

	"github.com/gin-gonic/gin"
)

// ReconcileRequest 手动对账请求，window_minutes 为空时使用配置窗口
type ReconcileRequest struct {
	Secret        string `json:"secret"`
	WindowMinutes int    `json:"window_minutes"`
}

// ReconcileResponse 对账结果
type ReconcileResponse struct {
	Findings []service.ReconcileFinding `json:"findings"`
}

// OperationLogRequest 操作日志查询请求
type OperationLogRequest struct {
	shared.PageQuery
	Secret string `json:"secret"`
	Action string `json:"action"`
	Phone  string `json:"phone"`
}

// Reconcile 同步执行一次对账扫描
func (h *Handler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	findings, err := h.ReconcileService.Reconcile(c.Request.Context(), shared.AuthContext(c, req.Secret), req.WindowMinutes)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.JSON(c, ReconcileResponse{Findings: findings})
}

// OperationLogs 分页查询后台操作日志
func (h *Handler) OperationLogs(c *gin.Context) {
	var req OperationLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	page := req.PageQuery.Normalize()
	items, total, err := h.OperationLogService.List(c.Request.Context(), shared.AuthContext(c, req.Secret), repository.AdminOperationLogListFilter{
		Page:     page.Page,
		PageSize: page.PageSize,
		Action:   req.Action,
		Phone:    req.Phone,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Page(c, items, total, page.Page, page.PageSize)
}
