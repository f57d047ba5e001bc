package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StaffRequired 检查用户是否为 STAFF 或 ADMIN。
// 此中间件必须在 AuthMiddleware 之后使用；权限不足时重定向到登录页而不是返回错误页。
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !user.IsStaff() {
			c.Redirect(http.StatusFound, LoginRedirect(c))
			c.Abort()
			return
		}
		c.Next()
	}
}
