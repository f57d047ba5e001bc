package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"pastpapers-go/internal/middleware"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理所有工作人员后台的请求。
type AdminHandler struct {
	adminService   service.AdminService
	bulkService    service.BulkUploadService
	profileService service.ProfileService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService, bulkService service.BulkUploadService, profileService service.ProfileService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		bulkService:    bulkService,
		profileService: profileService,
	}
}

// BulkUpload 处理批量上传：共享的 department/year/semester，
// 以及按顺序对应的 files、course_codes[] 与 titles[]。
func (h *AdminHandler) BulkUpload(c *gin.Context) {
	var meta service.BulkMeta
	if err := c.ShouldBind(&meta); err != nil {
		respond(c, http.StatusBadRequest, "Invalid form data.", nil)
		return
	}
	files := formFiles(c, "files")
	courseCodes := c.PostFormArray("course_codes[]")
	titles := c.PostFormArray("titles[]")

	user := middleware.CurrentUser(c)
	result, err := h.bulkService.BulkUpload(c.Request.Context(), user, meta, files, courseCodes, titles)
	if err != nil {
		log.Warnf("[AdminHandler] 批量上传失败, user: %s, error: %v", user.Username, err)
		respondError(c, err)
		return
	}
	ok(c, fmt.Sprintf("%d papers uploaded successfully.", result.Created), result)
}

// ExportZip 把选中的论文及其附件打包为 ZIP 下载。
func (h *AdminHandler) ExportZip(c *gin.Context) {
	export, err := h.adminService.ExportZip(c.Request.Context(), parseIDs(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+service.ExportFilename)
	c.Header("X-Skipped-Files", strconv.Itoa(export.Skipped))
	c.Data(http.StatusOK, "application/zip", export.Data)
}

// ResetDownloads 把选中论文的下载次数清零。
func (h *AdminHandler) ResetDownloads(c *gin.Context) {
	n, err := h.adminService.ResetDownloads(parseIDs(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, fmt.Sprintf("%d papers had their download count reset.", n), gin.H{"updated": n})
}

// AddAttachments 为论文追加附件文件。
func (h *AdminHandler) AddAttachments(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	attachments, err := h.adminService.AddAttachments(c.Request.Context(), id, formFiles(c, "files"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, fmt.Sprintf("%d attachments added.", len(attachments)), attachments)
}

// ListPapers 返回后台论文列表。
func (h *AdminHandler) ListPapers(c *gin.Context) {
	var q service.AdminPaperQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond(c, http.StatusBadRequest, "Invalid query.", nil)
		return
	}
	list, err := h.adminService.ListPapers(q)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", list)
}

// ListProfiles 返回后台用户资料列表。
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	list, err := h.profileService.ListProfiles(c.Query("q"), c.Query("page"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", list)
}
