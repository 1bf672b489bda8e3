package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"psst-builder-api/internal/workflow/port"
	"psst-builder-api/pkg/logger"
	"psst-builder-api/pkg/metrics"
)

// clientSource 按 context 中的凭证返回 genai 客户端
type clientSource interface {
	Client(ctx context.Context) (*genai.Client, error)
}

// contentGenerator genai Models 服务中用到的部分
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func modelsOf(ctx context.Context, src clientSource) (contentGenerator, error) {
	c, err := src.Client(ctx)
	if err != nil {
		return nil, err
	}
	return c.Models, nil
}

// GeminiTextModel 结构化文本生成
type GeminiTextModel struct {
	models       func(ctx context.Context) (contentGenerator, error)
	defaultModel string
}

// NewGeminiTextModel 创建文本生成适配器
func NewGeminiTextModel(factory *GeminiFactory) *GeminiTextModel {
	return &GeminiTextModel{
		models:       func(ctx context.Context) (contentGenerator, error) { return modelsOf(ctx, factory) },
		defaultModel: factory.config.TextModel,
	}
}

// GenerateText 实现 port.TextModel
func (m *GeminiTextModel) GenerateText(ctx context.Context, req *port.TextRequest) (*port.TextResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = m.defaultModel
	}

	cfg, err := buildTextConfig(req)
	if err != nil {
		return nil, err
	}

	models, err := m.models(ctx)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(req.Attachments)+1)
	for _, a := range req.Attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	start := time.Now()
	resp, err := models.GenerateContent(ctx, modelName, contents, cfg)
	metrics.LLMCallDuration.WithLabelValues(modelName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(modelName, "error").Inc()
		return nil, toProviderError(err)
	}
	metrics.LLMCallTotal.WithLabelValues(modelName, "success").Inc()

	out := &port.TextResponse{
		Text:  responseText(resp),
		Model: modelName,
		Usage: usageOf(resp),
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		reason := resp.Candidates[0].FinishReason
		out.FinishReason = string(reason)
		out.Truncated = reason == genai.FinishReasonMaxTokens
	}
	recordUsage(modelName, out.Usage)

	logger.Debug(ctx, "gemini text call finished",
		"model", modelName,
		"finish_reason", out.FinishReason,
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func buildTextConfig(req *port.TextRequest) (*genai.GenerateContentConfig, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.ThinkingBudget > 0 {
		budget := int32(req.ThinkingBudget)
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	if req.ResponseSchema != nil {
		schema, err := toGenaiSchema(req.ResponseSchema)
		if err != nil {
			return nil, fmt.Errorf("invalid response schema: %w", err)
		}
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = schema
	}
	return cfg, nil
}

// responseText 拼接首个候选中非思考部分的文本
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func usageOf(resp *genai.GenerateContentResponse) port.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return port.TokenUsage{}
	}
	u := resp.UsageMetadata
	return port.TokenUsage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		ThoughtsTokens:   int(u.ThoughtsTokenCount),
	}
}

func recordUsage(model string, u port.TokenUsage) {
	metrics.LLMTokensUsed.WithLabelValues(model, "prompt").Add(float64(u.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(model, "completion").Add(float64(u.CompletionTokens))
	metrics.LLMTokensUsed.WithLabelValues(model, "thoughts").Add(float64(u.ThoughtsTokens))
}
