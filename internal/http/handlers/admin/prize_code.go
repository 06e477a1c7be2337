package admin

import (
	"github.com/prize-lottery/internal/http/handlers/shared"
	"github.com/prize-lottery/internal/http/response"
	"github.com/prize-lottery/internal/models"

	"github.com/gin-gonic/gin"
)

// CodeRequest 核销类请求，code 可为完整码或末尾片段
type CodeRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// SecretRequest 仅携带口令的请求
type SecretRequest struct {
	Secret string `json:"secret"`
}

// LookupRequest 顾客查询请求
type LookupRequest struct {
	Secret string `json:"secret"`
	Query  string `json:"query"`
}

// UserCodesResponse 手机号下未核销奖品码
type UserCodesResponse struct {
	Codes []models.PrizeCode `json:"codes"`
}

// Redeem 核销奖品码
func (h *Handler) Redeem(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	if err := h.PrizeCodeService.Redeem(c.Request.Context(), shared.AuthContext(c, req.Secret), req.Code); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.OK(c)
}

// Unredeem 撤销核销
func (h *Handler) Unredeem(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	if err := h.PrizeCodeService.Unredeem(c.Request.Context(), shared.AuthContext(c, req.Secret), req.Code); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.OK(c)
}

// Stock 各等级剩余库存
func (h *Handler) Stock(c *gin.Context) {
	var req SecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	tally, err := h.PrizeCodeService.StockTally(c.Request.Context(), shared.AuthContext(c, req.Secret))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.JSON(c, tally)
}

// Lookup 按手机号或短码查询顾客
func (h *Handler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	result, err := h.PrizeCodeService.Lookup(c.Request.Context(), shared.AuthContext(c, req.Secret), req.Query)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.JSON(c, result)
}

// UserCodes 列出手机号下已分配未核销的奖品码
func (h *Handler) UserCodes(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	codes, err := h.PrizeCodeService.ListAssignedCodes(c.Request.Context(), shared.AuthContext(c, req.Secret), req.Phone)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	if codes == nil {
		codes = []models.PrizeCode{}
	}
	response.JSON(c, UserCodesResponse{Codes: codes})
}
