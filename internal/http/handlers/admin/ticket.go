package admin

import (
	"github.com/prize-lottery/internal/http/handlers/shared"
	"github.com/prize-lottery/internal/http/response"

	"github.com/gin-gonic/gin"
)

// PhoneRequest 仅携带手机号的后台请求
type PhoneRequest struct {
	Secret string `json:"secret"`
	Phone  string `json:"phone"`
}

// TicketCountResponse 可用抽选券数量
type TicketCountResponse struct {
	Count int64 `json:"count"`
}

// AddTicket 发放抽选券
func (h *Handler) AddTicket(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	if _, err := h.TicketService.Grant(c.Request.Context(), shared.AuthContext(c, req.Secret), req.Phone); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.OK(c)
}

// RemoveTicket 撤回最新一张可用抽选券
func (h *Handler) RemoveTicket(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	if err := h.TicketService.Revoke(c.Request.Context(), shared.AuthContext(c, req.Secret), req.Phone); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.OK(c)
}

// TicketCount 查询可用抽选券数量
func (h *Handler) TicketCount(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	count, err := h.TicketService.Count(c.Request.Context(), shared.AuthContext(c, req.Secret), req.Phone)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.JSON(c, TicketCountResponse{Count: count})
}
