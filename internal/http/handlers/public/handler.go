package public

import "github.com/prize-lottery/internal/provider"

// Handler 前台/公开接口处理器入口
// 说明：该处理器仅用于顾客抽奖与健康检查。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
