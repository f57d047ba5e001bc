package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrPaperNotFound       = errors.New("paper not found")
	ErrDuplicatePaper      = errors.New("duplicate paper")
	ErrPaperHasNoFile      = errors.New("paper has no file")
	ErrNoFilesSelected     = errors.New("No files selected.")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenRevoked        = errors.New("token has been revoked")
	ErrSearchUnavailable   = errors.New("search is not configured")
)

// ValidationError 收集表单的字段错误，键为表单字段名。
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// NewValidationError 用已有的字段错误创建 ValidationError，fields 为空时返回 nil。
func NewValidationError(fields map[string]string) *ValidationError {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Add 追加一个字段错误，已有错误的字段保持不变。
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// AccountFormError 分别携带用户表单与资料表单的错误。
type AccountFormError struct {
	User    map[string]string `json:"userForm"`
	Profile map[string]string `json:"profileForm"`
}

func (e *AccountFormError) Error() string {
	return "account form is invalid"
}

// BulkError 表示批量上传整体失败，没有任何论文被写入。
type BulkError struct {
	Message string
	// Internal 为 true 表示存储或数据库异常，而不是请求本身有误
	Internal bool
}

func (e *BulkError) Error() string {
	return e.Message
}
