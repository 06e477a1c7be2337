package admin

import "github.com/prize-lottery/internal/provider"

// Handler 后台管理接口处理器入口
// 说明：所有接口以请求体中的 secret 鉴权，由服务层统一校验。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
