package handler

import (
	"net/http"
	"strconv"
	"strings"

	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 结构体定义了全文搜索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search 在已索引的论文正文中搜索。
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		log.Warnf("[SearchHandler] 搜索请求失败: q 参数为空")
		respond(c, http.StatusBadRequest, "Please enter a search term.", nil)
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size <= 0 {
		size = 10
	}

	results, err := h.searchService.Search(c.Request.Context(), query, size)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Infof("[SearchHandler] 搜索成功, q: '%s', 返回 %d 条结果", query, len(results))
	ok(c, "success", results)
}
