package llm

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"psst-builder-api/internal/workflow/port"
	"psst-builder-api/pkg/metrics"
)

// GeminiImageModel 插图生成
type GeminiImageModel struct {
	models       func(ctx context.Context) (contentGenerator, error)
	defaultModel string
}

// NewGeminiImageModel 创建图片生成适配器
func NewGeminiImageModel(factory *GeminiFactory) *GeminiImageModel {
	return &GeminiImageModel{
		models:       func(ctx context.Context) (contentGenerator, error) { return modelsOf(ctx, factory) },
		defaultModel: factory.config.ImageModel,
	}
}

// GenerateImage 实现 port.ImageModel，返回响应中的全部内联图片
func (m *GeminiImageModel) GenerateImage(ctx context.Context, req *port.ImageRequest) ([]port.InlineData, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = m.defaultModel
	}

	models, err := m.models(ctx)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(req.References)+1)
	for _, r := range req.References {
		parts = append(parts, genai.NewPartFromBytes(r.Data, r.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	cfg := &genai.GenerateContentConfig{}
	if req.AspectRatio != "" || req.ImageSize != "" {
		cfg.ImageConfig = &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		}
	}

	start := time.Now()
	resp, err := models.GenerateContent(ctx, modelName,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	metrics.LLMCallDuration.WithLabelValues(modelName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(modelName, "error").Inc()
		return nil, toProviderError(err)
	}
	metrics.LLMCallTotal.WithLabelValues(modelName, "success").Inc()
	recordUsage(modelName, usageOf(resp))

	return inlineImages(resp), nil
}

func inlineImages(resp *genai.GenerateContentResponse) []port.InlineData {
	if resp == nil {
		return nil
	}
	var out []port.InlineData
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
				continue
			}
			mime := p.InlineData.MIMEType
			if mime != "" && !strings.HasPrefix(mime, "image/") {
				continue
			}
			out = append(out, port.InlineData{Data: p.InlineData.Data, MIMEType: mime})
		}
	}
	return out
}
