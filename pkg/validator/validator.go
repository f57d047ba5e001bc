// Package validator 基于 go-playground/validator 校验表单结构体，并给出可读的字段错误。
package validator

import (
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"pastpapers-go/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func init() {
	validate = validator.New()
	// 错误中的字段名使用 form 标签，与请求参数保持一致
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	mustRegister("department", func(fl validator.FieldLevel) bool {
		return model.IsValidDepartment(fl.Field().String())
	})
	mustRegister("semester", func(fl validator.FieldLevel) bool {
		return model.IsValidSemester(fl.Field().String())
	})
	// 年份必须是正整数，0 在浏览筛选中表示不限年份
	mustRegister("year", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n > 0
	})
	mustRegister("pdf", func(fl validator.FieldLevel) bool {
		return IsPDF(fl.Field().String())
	})
	mustRegister("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister("image", func(fl validator.FieldLevel) bool {
		return IsImage(fl.Field().String())
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// IsPDF 判断文件名是否以 .pdf 结尾（忽略大小写）。
func IsPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// IsImage 判断文件名是否为允许的头像格式。
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Validate 校验结构体，返回 字段名 → 错误信息，全部通过时返回 nil。
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"__all__": err.Error()}
	}

	errors := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := errors[fe.Field()]; seen {
			continue
		}
		errors[fe.Field()] = message(fe)
	}
	return errors
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "department":
		return "Select a valid department."
	case "semester":
		return "Select a valid semester."
	case "year":
		return "Enter a valid year."
	case "pdf":
		return "Only PDF files are allowed."
	case "image":
		return "Upload a valid image (jpg, jpeg, png, gif or webp)."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
