package llm

import (
	"errors"

	"google.golang.org/genai"

	"psst-builder-api/internal/workflow/port"
)

// toProviderError 把 genai.APIError 转换为 port.ProviderError，其他错误原样返回
func toProviderError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(&apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newProviderError(apiErrPtr, err)
	}
	return err
}

func newProviderError(apiErr *genai.APIError, cause error) *port.ProviderError {
	return &port.ProviderError{
		Provider:   providerName,
		StatusCode: apiErr.Code,
		Status:     apiErr.Status,
		Reason:     errorReason(apiErr.Details),
		Message:    apiErr.Message,
		Err:        cause,
	}
}

// errorReason 从 google.rpc.ErrorInfo 详情中取 reason
func errorReason(details []map[string]any) string {
	for _, d := range details {
		if reason, ok := d["reason"].(string); ok && reason != "" {
			return reason
		}
	}
	return ""
}
