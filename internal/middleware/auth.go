// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// 上下文与会话中使用的键。
const (
	ContextUserKey     = "user"
	ContextClaimsKey   = "claims"
	SessionUsernameKey = "username"
	LoginPath          = "/login/"
)

// LoginRedirect 返回带 next 参数的登录地址。
func LoginRedirect(c *gin.Context) string {
	return LoginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
}

// CurrentUser 返回 AuthMiddleware 或 OptionalAuth 注入的用户，没有时返回 nil。
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// BearerToken 从 Authorization 请求头中提取 token。
func BearerToken(c *gin.Context) string {
	const bearerPrefix = "Bearer "
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
}

// resolveUser 依次尝试 Bearer token 和会话中的用户名。
func resolveUser(c *gin.Context, jwtManager *token.JWTManager, userService service.UserService) *model.User {
	if tokenString := BearerToken(c); tokenString != "" {
		claims, err := jwtManager.VerifyKind(tokenString, token.KindAccess)
		if err != nil {
			log.Warnf("[Auth] token 无效: %v", err)
			return nil
		}
		if userService.IsRevoked(c.Request.Context(), tokenString) {
			log.Warnf("[Auth] token 已注销, username: %s", claims.Username)
			return nil
		}
		user, err := userService.GetProfile(claims.Username)
		if err != nil {
			return nil
		}
		c.Set(ContextClaimsKey, claims)
		return user
	}

	session := sessions.Default(c)
	username, _ := session.Get(SessionUsernameKey).(string)
	if username == "" {
		return nil
	}
	user, err := userService.GetProfile(username)
	if err != nil {
		// 用户已被删除，清掉失效的会话
		session.Delete(SessionUsernameKey)
		_ = session.Save()
		return nil
	}
	return user
}

// OptionalAuth 解析当前用户（如果有），不拦截匿名请求。
func OptionalAuth(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := resolveUser(c, jwtManager, userService); user != nil {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// AuthMiddleware 要求请求已登录，否则重定向到登录页。
// 认证来源为 Authorization: Bearer <jwt> 或登录时写入会话的用户名。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := resolveUser(c, jwtManager, userService)
		if user == nil {
			c.Redirect(http.StatusFound, LoginRedirect(c))
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}
