package shared

import (
	"strings"

	"github.com/variant-next/internal/constants"

	"github.com/gin-gonic/gin"
)

// CartToken 读取请求携带的购物车令牌，优先取请求头，
// 兼容 query 参数（分享链接等只读场景）。
func CartToken(c *gin.Context) string {
	if c == nil {
		return ""
	}
	token := strings.TrimSpace(c.GetHeader(constants.CartTokenHeader))
	if token == "" {
		token = strings.TrimSpace(c.Query("cart_token"))
	}
	return token
}

// SetCartToken 把购物车令牌写回响应头，客户端据此持有新购物车
func SetCartToken(c *gin.Context, token string) {
	if c == nil || token == "" {
		return
	}
	c.Writer.Header().Set(constants.CartTokenHeader, token)
}
