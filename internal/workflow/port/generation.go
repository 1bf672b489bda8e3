// Package port 定义工作流层对外部生成服务的最小依赖
package port

import (
	"context"
	"errors"
	"fmt"
)

// ErrCredentialUnavailable 当前没有可用的 API 凭证
var ErrCredentialUnavailable = errors.New("api credential unavailable")

// InlineData 内联二进制数据（附件或生成图片）
type InlineData struct {
	Data     []byte
	MIMEType string
}

// TokenUsage Token 使用量
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	ThoughtsTokens   int
}

// TextRequest 结构化文本生成请求
type TextRequest struct {
	Model             string
	SystemInstruction string
	Prompt            string
	Attachments       []InlineData

	// ResponseSchema 非空时要求模型输出 application/json 并遵循该 schema
	ResponseSchema map[string]any

	MaxOutputTokens int
	ThinkingBudget  int
}

// TextResponse 文本生成结果
type TextResponse struct {
	Text         string
	Model        string
	FinishReason string
	// Truncated 输出因 token 上限被截断
	Truncated bool
	Usage     TokenUsage
}

// TextModel 文本生成服务
type TextModel interface {
	GenerateText(ctx context.Context, req *TextRequest) (*TextResponse, error)
}

// ImageRequest 图片生成请求
type ImageRequest struct {
	Model       string
	Prompt      string
	References  []InlineData
	AspectRatio string
	ImageSize   string
}

// ImageModel 图片生成服务，一次调用可能返回多张图片
type ImageModel interface {
	GenerateImage(ctx context.Context, req *ImageRequest) ([]InlineData, error)
}

// ProviderError 生成服务返回的结构化错误
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string
	Reason     string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s (%d): %s", e.Provider, e.Status, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
