package shared

import (
	"github.com/prize-lottery/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestIDKey 请求 ID 在 gin 上下文中的 key
const RequestIDKey = "request_id"

// RequestID 读取当前请求 ID
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	value, ok := c.Get(RequestIDKey)
	if !ok {
		return ""
	}
	if id, ok := value.(string); ok {
		return id
	}
	return ""
}

// AuthContext 根据请求口令与上下文构建后台鉴权信息。
func AuthContext(c *gin.Context, secret string) service.AuthContext {
	return service.AuthContext{
		Secret:    secret,
		RequestID: RequestID(c),
		ClientIP:  c.ClientIP(),
	}
}
