package shared

import (
	"errors"
	"strings"

	"github.com/prize-lottery/internal/http/response"
	"github.com/prize-lottery/internal/i18n"
	"github.com/prize-lottery/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// ServiceErrorRules 服务层错误对应的状态码与文案 key。
var ServiceErrorRules = []MappedError{
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Key: "error.invalid_input"},
	{Target: service.ErrAuthFailure, Code: response.CodeUnauthorized, Key: "error.secret_mismatch"},
	{Target: service.ErrNoTicketAvailable, Code: response.CodeBadRequest, Key: "error.no_ticket"},
	{Target: service.ErrNoStockAvailable, Code: response.CodeBadRequest, Key: "error.no_stock"},
	{Target: service.ErrTicketRaceLost, Code: response.CodeConflict, Key: "error.race_lost"},
	{Target: service.ErrNoRevocableTicket, Code: response.CodeNotFound, Key: "error.no_revocable_ticket"},
	{Target: service.ErrCodeNotFound, Code: response.CodeNotFound, Key: "error.code_not_found"},
	{Target: service.ErrLookupNotFound, Code: response.CodeNotFound, Key: "error.lookup_not_found"},
}

// RespondServiceError 按映射表输出错误。
// 未命中的一律按存储故障处理，原因原样带回响应，便于现场排查。
func RespondServiceError(c *gin.Context, err error) {
	for _, rule := range ServiceErrorRules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	msg := i18n.Sprintf(i18n.ResolveLocale(c), "error.store_failure", storeFailureDetail(err))
	RespondErrorWithMsg(c, response.CodeInternal, msg, err)
}

// RespondBadBody 请求体无法解析
func RespondBadBody(c *gin.Context) {
	RespondError(c, response.CodeBadRequest, "error.invalid_input", nil)
}

func storeFailureDetail(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), service.ErrStoreFailure.Error()+": ")
}
