// Package handler 提供 HTTP 请求处理器
package handler

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"

	"psst-builder-api/internal/application/credential"
	"psst-builder-api/internal/application/plan"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/interfaces/http/dto"
	"psst-builder-api/pkg/errors"
	"psst-builder-api/pkg/logger"
)

// APIBasePath API 路由前缀
const APIBasePath = "/api/v1"

// toAppError 将应用层错误映射为 HTTP 错误
func toAppError(err error) *errors.AppError {
	var verr *entity.ValidationError
	switch {
	case stderrors.As(err, &verr):
		return errors.New(errors.CodeValidationFailed, "invalid company info").
			WithDetail(strings.Join(verr.Issues, "; "))
	case stderrors.Is(err, plan.ErrCycleInProgress):
		return errors.ErrGenerationInProgress
	case stderrors.Is(err, credential.ErrInvalidKey):
		return errors.ErrCredentialInvalid
	case stderrors.Is(err, credential.ErrBridgeUnavailable):
		return errors.ErrServiceUnavailable.WithDetail(err.Error())
	}

	var base *errors.AppError
	switch plan.Kind(err) {
	case plan.KindAuth:
		base = errors.ErrCredentialRequired
	case plan.KindMalformed:
		base = errors.ErrMalformedOutput
	case plan.KindService:
		base = errors.ErrLLMProvider
	default:
		if errors.IsAppError(err) {
			return errors.AsAppError(err)
		}
		return errors.ErrInternalError.WithError(err)
	}
	return base.WithDetail(err.Error()).
		WithSuggestions(string(plan.Recovery(err))).
		WithError(err)
}

// respondError 写出错误响应，5xx 记录日志
func respondError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= 500 {
		logger.Error(c.Request.Context(), "request failed", err, "path", c.FullPath())
	}

	detail := &dto.ErrorDetail{
		ErrorCode:   string(appErr.Code),
		Details:     appErr.Detail,
		Suggestions: appErr.Suggestions,
	}
	if appErr.Code == errors.CodeInternalError {
		detail.Details = ""
	}
	dto.Fail(c, appErr.HTTPStatus, appErr.Message, detail)
}
