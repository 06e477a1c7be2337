package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody 错误响应体
type ErrorBody struct {
	Error string `json:"error"`
}

// OKBody 无数据的成功响应体
type OKBody struct {
	OK bool `json:"ok"`
}

// PageBody 分页响应体
type PageBody struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// JSON 直接输出业务数据，不做外层包装
func JSON(c *gin.Context, data interface{}) {
	c.JSON(CodeOK, data)
}

// OK 输出 {"ok": true}
func OK(c *gin.Context) {
	c.JSON(CodeOK, OKBody{OK: true})
}

// Page 输出分页数据
func Page(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	c.JSON(CodeOK, PageBody{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Error 以 HTTP 状态码输出 {"error": msg}
func Error(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, ErrorBody{Error: msg})
}

// AbortWithError 输出错误并中止后续处理
func AbortWithError(c *gin.Context, statusCode int, msg string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Error: msg})
}
