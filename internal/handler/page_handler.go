package handler

import (
	"net/http"

	"pastpapers-go/internal/middleware"
	"pastpapers-go/internal/service"

	"github.com/gin-gonic/gin"
)

// PageHandler 负责首页跳转和仪表盘。
type PageHandler struct {
	browseService service.BrowseService
}

// NewPageHandler 创建一个新的 PageHandler 实例。
func NewPageHandler(browseService service.BrowseService) *PageHandler {
	return &PageHandler{browseService: browseService}
}

// Landing 已登录用户跳到 /home/，匿名用户跳到登录页。
func (h *PageHandler) Landing(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/home/")
		return
	}
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// Home 返回最新上传与下载最多的论文。
func (h *PageHandler) Home(c *gin.Context) {
	dashboard, err := h.browseService.Dashboard()
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", gin.H{
		"user":    middleware.CurrentUser(c),
		"recent":  dashboard.Recent,
		"popular": dashboard.Popular,
		"theme":   middleware.CurrentTheme(c),
	})
}
