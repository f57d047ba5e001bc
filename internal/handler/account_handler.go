package handler

import (
	"net/http"

	"pastpapers-go/internal/middleware"
	"pastpapers-go/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountHandler 负责账户页的查看与修改。
type AccountHandler struct {
	profileService service.ProfileService
}

// NewAccountHandler 创建一个新的 AccountHandler 实例。
func NewAccountHandler(profileService service.ProfileService) *AccountHandler {
	return &AccountHandler{profileService: profileService}
}

// Show 返回账户信息，?edit=true 时进入编辑模式。
func (h *AccountHandler) Show(c *gin.Context) {
	view, err := h.profileService.GetAccount(c.Request.Context(), middleware.CurrentUser(c), c.Query("edit") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", gin.H{"account": view, "theme": middleware.CurrentTheme(c)})
}

// Update 同时提交用户表单和资料表单，两者都有效时才保存。
func (h *AccountHandler) Update(c *gin.Context) {
	var uf service.UserForm
	var pf service.ProfileForm
	if err := c.ShouldBind(&uf); err != nil {
		respond(c, http.StatusBadRequest, "Invalid form data.", nil)
		return
	}
	if err := c.ShouldBind(&pf); err != nil {
		respond(c, http.StatusBadRequest, "Invalid form data.", nil)
		return
	}
	avatar, err := optionalFile(c, "avatar")
	if err != nil {
		respond(c, http.StatusBadRequest, "Invalid file upload.", nil)
		return
	}

	view, err := h.profileService.UpdateAccount(c.Request.Context(), middleware.CurrentUser(c), uf, pf, avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Your profile was updated successfully!", gin.H{"account": view, "theme": middleware.CurrentTheme(c)})
}
