package handler

import (
	"net/http"

	"pastpapers-go/internal/middleware"
	"pastpapers-go/pkg/log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type setThemeRequest struct {
	Theme string `json:"theme"`
}

// SetTheme 把主题偏好写入会话。路由接受任意方法，非 POST 请求返回 400。
func SetTheme(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var req setThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid JSON: " + err.Error()})
		return
	}
	if !middleware.IsValidTheme(req.Theme) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid theme"})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.ThemeKey, req.Theme)
	if err := session.Save(); err != nil {
		log.Errorf("[ThemeHandler] 保存会话失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Could not save preference"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "theme": req.Theme})
}
