package public

import (
	"github.com/prize-lottery/internal/http/handlers/shared"
	"github.com/prize-lottery/internal/http/response"

	"github.com/gin-gonic/gin"
)

// DrawRequest 抽奖请求
type DrawRequest struct {
	Phone string `json:"phone"`
}

// DrawResponse 抽奖结果，只暴露奖品码与权益文案
type DrawResponse struct {
	Code        string `json:"code"`
	BenefitText string `json:"benefit_text"`
}

// Draw 消耗一张抽选券并分配奖品码
func (h *Handler) Draw(c *gin.Context) {
	var req DrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadBody(c)
		return
	}
	result, err := h.DrawService.Draw(c.Request.Context(), req.Phone)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.JSON(c, DrawResponse{
		Code:        result.Code,
		BenefitText: result.BenefitText,
	})
}

// Healthz 存活探针
func (h *Handler) Healthz(c *gin.Context) {
	response.OK(c)
}
