// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// respond 写出统一的 {"code","message","data"} 响应。
func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": data})
}

func ok(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data)
}

// respondError 把 service 层的错误映射为 HTTP 状态码和可读的消息。
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var ferr *service.AccountFormError
	var berr *service.BulkError
	switch {
	case errors.As(err, &verr):
		respond(c, http.StatusBadRequest, "Please correct the errors below.", gin.H{"errors": verr.Fields})
	case errors.As(err, &ferr):
		respond(c, http.StatusBadRequest, "Please correct the errors below.", ferr)
	case errors.As(err, &berr):
		status := http.StatusBadRequest
		if berr.Internal {
			status = http.StatusInternalServerError
		}
		respond(c, status, berr.Message, gin.H{"created": 0, "messages": []string{berr.Message}})
	case errors.Is(err, service.ErrDuplicatePaper):
		respond(c, http.StatusConflict, "A paper with this title, course code, year and semester already exists.", nil)
	case errors.Is(err, service.ErrPaperNotFound):
		respond(c, http.StatusNotFound, "Paper not found.", nil)
	case errors.Is(err, service.ErrPaperHasNoFile):
		respond(c, http.StatusNotFound, "This paper has no file to download.", nil)
	case errors.Is(err, service.ErrNoFilesSelected):
		respond(c, http.StatusBadRequest, service.ErrNoFilesSelected.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respond(c, http.StatusUnauthorized, "Invalid username or password.", nil)
	case errors.Is(err, service.ErrUsernameTaken):
		respond(c, http.StatusConflict, "A user with that username already exists.", nil)
	case errors.Is(err, service.ErrUserNotFound):
		respond(c, http.StatusNotFound, "User not found.", nil)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		respond(c, http.StatusUnauthorized, "Invalid refresh token.", nil)
	case errors.Is(err, service.ErrSearchUnavailable):
		respond(c, http.StatusServiceUnavailable, "Search is not available.", nil)
	default:
		log.Errorf("[Handler] %s %s 处理失败: %v", c.Request.Method, c.Request.URL.Path, err)
		respond(c, http.StatusInternalServerError, "An unexpected error occurred.", nil)
	}
}

// paramID 解析路径参数中的论文 ID，无效时直接写出 404。
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respond(c, http.StatusNotFound, "Paper not found.", nil)
		return 0, false
	}
	return uint(id), true
}

// optionalFile 读取可选的上传文件，字段缺失时返回 nil。
func optionalFile(c *gin.Context, field string) (*service.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	up := service.UploadFromHeader(fh)
	return &up, nil
}

// formFiles 读取同名的多个上传文件，保持提交顺序。
func formFiles(c *gin.Context, field string) []service.Upload {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return uploadsFromHeaders(form.File[field])
}

func uploadsFromHeaders(headers []*multipart.FileHeader) []service.Upload {
	files := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, service.UploadFromHeader(fh))
	}
	return files
}

// parseIDs 从 JSON {"ids":[...]} 或表单字段 ids 中读取论文 ID 列表，忽略无法解析的值。
func parseIDs(c *gin.Context) []uint {
	if c.ContentType() == gin.MIMEJSON {
		var req struct {
			IDs []uint `json:"ids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil
		}
		return req.IDs
	}
	var ids []uint
	for _, raw := range c.PostFormArray("ids") {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}
