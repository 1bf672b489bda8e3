package node

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"psst-builder-api/internal/workflow/port"
)

// ErrorClass 生成服务错误分类
type ErrorClass string

const (
	ErrorClassAuth    ErrorClass = "auth"
	ErrorClassService ErrorClass = "service"
)

// 按状态码分类；400 需结合 reason 判断
var statusClassTable = map[int]ErrorClass{
	http.StatusUnauthorized: ErrorClassAuth,
	http.StatusForbidden:    ErrorClassAuth,
	// 已选择的凭证失效时服务端返回 "Requested entity was not found"
	http.StatusNotFound: ErrorClassAuth,
}

var authReasons = map[string]bool{
	"API_KEY_INVALID":         true,
	"API_KEY_SERVICE_BLOCKED": true,
	"UNAUTHENTICATED":         true,
	"PERMISSION_DENIED":       true,
}

// 无结构化信息时的兜底匹配
var authMessagePatterns = []string{
	"requested entity was not found",
	"api key not valid",
	"permission_denied",
	"credential unavailable",
	"401",
	"403",
}

// ClassifyLLMError 判断生成服务错误是否为凭证问题
func ClassifyLLMError(err error) ErrorClass {
	if err == nil {
		return ""
	}
	if errors.Is(err, port.ErrCredentialUnavailable) {
		return ErrorClassAuth
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorClassService
	}

	var perr *port.ProviderError
	if errors.As(err, &perr) {
		if class, ok := statusClassTable[perr.StatusCode]; ok {
			return class
		}
		if authReasons[strings.ToUpper(perr.Reason)] || authReasons[strings.ToUpper(perr.Status)] {
			return ErrorClassAuth
		}
		if perr.StatusCode >= http.StatusInternalServerError || perr.StatusCode == http.StatusTooManyRequests {
			return ErrorClassService
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range authMessagePatterns {
		if strings.Contains(msg, p) {
			return ErrorClassAuth
		}
	}
	return ErrorClassService
}
