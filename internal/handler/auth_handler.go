package handler

import (
	"net/http"

	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责 token 续期。
type AuthHandler struct {
	userService service.UserService
}

func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// refreshForm 同时接受 JSON 与表单提交。
type refreshForm struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken" binding:"required"`
}

// RefreshToken 用 refresh token 换取新的一对 token，access token 不能用于续期。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var form refreshForm
	if err := c.ShouldBind(&form); err != nil {
		respond(c, http.StatusBadRequest, "refreshToken is required.", nil)
		return
	}

	access, refresh, err := h.userService.RefreshToken(form.RefreshToken)
	if err != nil {
		log.Warnf("[AuthHandler] 续期失败, ip: %s, error: %v", c.ClientIP(), err)
		respondError(c, err)
		return
	}

	ok(c, "Token refreshed successfully", gin.H{
		"token":        access,
		"refreshToken": refresh,
		"tokenType":    "Bearer",
	})
}
