package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// 主题相关的键与取值。
const (
	ThemeKey     = "theme"
	ThemeLight   = "light"
	ThemeDark    = "dark"
	DefaultTheme = ThemeLight
)

// IsValidTheme 判断主题是否受支持。
func IsValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

// Theme 把会话中的主题偏好复制到 gin 上下文，处理函数通过 CurrentTheme 读取。
func Theme() gin.HandlerFunc {
	return func(c *gin.Context) {
		theme, _ := sessions.Default(c).Get(ThemeKey).(string)
		if !IsValidTheme(theme) {
			theme = DefaultTheme
		}
		c.Set(ThemeKey, theme)
		c.Next()
	}
}

// CurrentTheme 返回当前请求的主题。
func CurrentTheme(c *gin.Context) string {
	if theme := c.GetString(ThemeKey); theme != "" {
		return theme
	}
	return DefaultTheme
}
