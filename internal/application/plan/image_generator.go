package plan

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/workflow/port"
	"psst-builder-api/pkg/logger"
	"psst-builder-api/pkg/metrics"
	"psst-builder-api/pkg/tracer"
)

const defaultImageMIME = "image/png"

var errNoImageInResponse = errors.New("no image in response")

// ImageGeneratorConfig 插图生成配置
type ImageGeneratorConfig struct {
	Model       string
	AspectRatio string
	ImageSize   string
	// Concurrency 同时进行的请求数，<=0 表示不限制
	Concurrency int
	Timeout     time.Duration
}

// ImageGenerator 插图生成器，单张失败不影响整体
type ImageGenerator struct {
	model port.ImageModel
	cfg   ImageGeneratorConfig
}

// NewImageGenerator 创建插图生成器
func NewImageGenerator(model port.ImageModel, cfg ImageGeneratorConfig) *ImageGenerator {
	return &ImageGenerator{model: model, cfg: cfg}
}

// GenerateAll 为每条提示词请求插图。失败的请求被记录后跳过；
// 返回的成功结果保持提示词顺序，同一请求返回多张时按返回顺序排列。
func (g *ImageGenerator) GenerateAll(ctx context.Context, prompts []string, attachments []port.InlineData) []entity.GeneratedImage {
	if len(prompts) == 0 || g.model == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "plan.images")
	defer span.End()

	refs := imageReferences(attachments)
	slots := make([][]entity.GeneratedImage, len(prompts))

	var eg errgroup.Group
	if g.cfg.Concurrency > 0 {
		eg.SetLimit(g.cfg.Concurrency)
	}
	for i, prompt := range prompts {
		eg.Go(func() error {
			slots[i] = g.generateOne(ctx, i, len(prompts), prompt, refs)
			return nil
		})
	}
	_ = eg.Wait()

	var out []entity.GeneratedImage
	for _, s := range slots {
		out = append(out, s...)
	}
	span.SetAttributes(
		attribute.Int("images.requested", len(prompts)),
		attribute.Int("images.returned", len(out)),
	)
	return out
}

func (g *ImageGenerator) generateOne(ctx context.Context, index, total int, prompt string, refs []port.InlineData) []entity.GeneratedImage {
	kind := entity.ImageKindFor(index, total)

	ctx, span := tracer.Start(ctx, "plan.image")
	defer span.End()
	span.SetAttributes(attribute.Int("image.index", index), attribute.String("image.kind", string(kind)))

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	data, err := g.model.GenerateImage(ctx, &port.ImageRequest{
		Model:       g.cfg.Model,
		Prompt:      prompt,
		References:  refs,
		AspectRatio: g.cfg.AspectRatio,
		ImageSize:   g.cfg.ImageSize,
	})
	if err == nil && len(data) == 0 {
		err = errNoImageInResponse
	}
	if err != nil {
		metrics.ImageGenerationTotal.WithLabelValues(string(kind), "failed").Inc()
		tracer.RecordError(span, err)
		logger.Warn(ctx, "image generation skipped", "index", index, "kind", string(kind), "error", err.Error())
		return nil
	}

	images := make([]entity.GeneratedImage, 0, len(data))
	for _, d := range data {
		mime := d.MIMEType
		if mime == "" {
			mime = defaultImageMIME
		}
		images = append(images, entity.GeneratedImage{
			Index:    index,
			Kind:     kind,
			MIMEType: mime,
			Data:     d.Data,
		})
	}
	metrics.ImageGenerationTotal.WithLabelValues(string(kind), "success").Inc()
	return images
}

// imageReferences 只把图片附件作为参考图传给图片模型
func imageReferences(attachments []port.InlineData) []port.InlineData {
	var refs []port.InlineData
	for _, a := range attachments {
		if strings.HasPrefix(strings.ToLower(a.MIMEType), "image/") {
			refs = append(refs, a)
		}
	}
	return refs
}
