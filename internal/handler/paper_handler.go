package handler

import (
	"net/http"

	"pastpapers-go/internal/middleware"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// PaperHandler 负责论文的上传、浏览、编辑、删除与下载。
type PaperHandler struct {
	paperService    service.PaperService
	browseService   service.BrowseService
	downloadService service.DownloadService
}

// NewPaperHandler 创建一个新的 PaperHandler 实例。
func NewPaperHandler(paperService service.PaperService, browseService service.BrowseService, downloadService service.DownloadService) *PaperHandler {
	return &PaperHandler{
		paperService:    paperService,
		browseService:   browseService,
		downloadService: downloadService,
	}
}

// UploadForm 返回上传表单的下拉选项。
func (h *PaperHandler) UploadForm(c *gin.Context) {
	ok(c, "success", h.paperService.FormOptions())
}

// Upload 处理单篇论文的 multipart 上传。
func (h *PaperHandler) Upload(c *gin.Context) {
	var in service.PaperInput
	if err := c.ShouldBind(&in); err != nil {
		respond(c, http.StatusBadRequest, "Invalid form data.", nil)
		return
	}
	file, err := optionalFile(c, "file")
	if err != nil {
		respond(c, http.StatusBadRequest, "Invalid file upload.", nil)
		return
	}

	user := middleware.CurrentUser(c)
	paper, err := h.paperService.Create(c.Request.Context(), user, in, file)
	if err != nil {
		log.Warnf("[PaperHandler] 上传失败, user: %s, error: %v", user.Username, err)
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Paper uploaded successfully!", paper.ToDTO())
}

// View 按查询条件浏览论文。
func (h *PaperHandler) View(c *gin.Context) {
	var q service.BrowseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond(c, http.StatusBadRequest, "Invalid query.", nil)
		return
	}
	result, err := h.browseService.Browse(q)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", result)
}

// MyFiles 返回当前用户上传的论文。
func (h *PaperHandler) MyFiles(c *gin.Context) {
	result, err := h.browseService.MyFiles(middleware.CurrentUser(c).ID, c.Query("page"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", result)
}

// Download 记录下载并重定向到文件地址。
func (h *PaperHandler) Download(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	url, err := h.downloadService.Download(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// EditForm 返回待编辑的论文。
func (h *PaperHandler) EditForm(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	paper, err := h.paperService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", gin.H{"paper": paper.ToDTO(), "options": h.paperService.FormOptions()})
}

// Edit 更新论文元数据，可选替换文件。
func (h *PaperHandler) Edit(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	var in service.PaperInput
	if err := c.ShouldBind(&in); err != nil {
		respond(c, http.StatusBadRequest, "Invalid form data.", nil)
		return
	}
	file, err := optionalFile(c, "file")
	if err != nil {
		respond(c, http.StatusBadRequest, "Invalid file upload.", nil)
		return
	}
	paper, err := h.paperService.Update(c.Request.Context(), id, in, file)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Paper updated successfully!", paper.ToDTO())
}

// Delete 删除论文及其附件。
func (h *PaperHandler) Delete(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	if err := h.paperService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	log.Infof("[PaperHandler] 论文已删除, id: %d, by: %s", id, middleware.CurrentUser(c).Username)
	ok(c, "Paper deleted successfully!", nil)
}
