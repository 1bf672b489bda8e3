package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"psst-builder-api/internal/domain/entity"
	wfchain "psst-builder-api/internal/workflow/chain"
	wfmodel "psst-builder-api/internal/workflow/model"
	wfnode "psst-builder-api/internal/workflow/node"
	"psst-builder-api/internal/workflow/port"
	"psst-builder-api/pkg/logger"
	"psst-builder-api/pkg/tracer"
)

// DocumentGeneratorConfig 文档生成配置
type DocumentGeneratorConfig struct {
	Model           string
	MaxOutputTokens int
	ThinkingBudget  int
	Timeout         time.Duration
}

// DocumentGenerator 结构化计划书生成器
type DocumentGenerator struct {
	chain *wfchain.DocumentChain
	cfg   DocumentGeneratorConfig
}

// NewDocumentGenerator 创建文档生成器
func NewDocumentGenerator(model port.TextModel, cfg DocumentGeneratorConfig) *DocumentGenerator {
	return &DocumentGenerator{
		chain: wfchain.NewDocumentChain(model),
		cfg:   cfg,
	}
}

// Generate 调用一次生成服务并返回校验通过的计划书。
// 错误为 *AuthError、*MalformedOutputError 或 *ServiceError 之一，均不自动重试。
func (g *DocumentGenerator) Generate(ctx context.Context, payload PromptPayload) (*entity.BusinessPlanDocument, error) {
	ctx, span := tracer.Start(ctx, "plan.document")
	defer span.End()

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	out, err := g.chain.Invoke(ctx, &wfmodel.DocumentGenerateInput{
		SystemInstruction: payload.SystemInstruction,
		UserPrompt:        payload.UserText,
		Attachments:       payload.Attachments,
		Model:             g.cfg.Model,
		ResponseSchema:    DocumentSchema(),
		MaxOutputTokens:   g.cfg.MaxOutputTokens,
		ThinkingBudget:    g.cfg.ThinkingBudget,
	})
	if err != nil {
		classified := classifyServiceFailure(ctx, err)
		tracer.RecordError(span, classified)
		return nil, classified
	}

	span.SetAttributes(
		attribute.Bool("llm.truncated", out.Truncated),
		attribute.Int("llm.completion_tokens", out.Usage.CompletionTokens),
	)

	doc, err := ParseDocument(out.JSON)
	if err != nil {
		var merr *MalformedOutputError
		if out.Truncated && errors.As(err, &merr) {
			merr.Issues = append(merr.Issues, "response: output truncated at the token limit")
		}
		logger.Warn(ctx, "document output rejected",
			"truncated", out.Truncated,
			"output_chars", len(out.Raw),
			"error", err.Error(),
		)
		tracer.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}

func classifyServiceFailure(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	if wfnode.ClassifyLLMError(err) == wfnode.ErrorClassAuth {
		return NewAuthError(err)
	}
	return NewServiceError(err)
}
