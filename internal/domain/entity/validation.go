package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError 聚合所有校验失败项
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Issues, "; "))
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// 按 json 标签输出字段路径，便于对照 schema
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = validate.RegisterValidation("attachment_mime", func(fl validator.FieldLevel) bool {
			return allowedAttachmentMIME[strings.ToLower(fl.Field().String())]
		})
	})
	return validate
}

// validateStruct 校验结构体并把 validator 错误整理为可读信息
func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	issues := make([]string, 0, len(verrs))
	for _, e := range verrs {
		issues = append(issues, formatFieldError(e))
	}
	return &ValidationError{Issues: issues}
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	// 去掉根类型名
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", field)
	case "nonblank":
		return fmt.Sprintf("%s: must not be blank", field)
	case "attachment_mime":
		return fmt.Sprintf("%s: unsupported type %q", field, e.Value())
	case "max":
		return fmt.Sprintf("%s: exceeds max length %s", field, e.Param())
	default:
		return fmt.Sprintf("%s: failed %s", field, e.Tag())
	}
}
