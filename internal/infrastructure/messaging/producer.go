package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"psst-builder-api/pkg/logger"
	pkgtracer "psst-builder-api/pkg/tracer"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishPlanJob 发布计划书生成任务
func (p *Producer) PublishPlanJob(ctx context.Context, job *PlanGenerateMessage) (string, error) {
	msg, err := NewMessage(job.JobID, MessageTypePlanGenerate, job)
	if err != nil {
		return "", err
	}
	if job.RequestID != "" {
		msg.SetMetadata("request_id", job.RequestID)
	}
	if traceID := pkgtracer.TraceID(ctx); traceID != "" {
		msg.SetMetadata("trace_id", traceID)
	}

	id, err := p.Publish(ctx, StreamPlanGenerate, msg)
	if err != nil {
		return "", err
	}
	logger.Debug(ctx, "plan job published", "job_id", job.JobID, "stream_id", id)
	return id, nil
}

// PlanJobPublisher 以任务 ID 发布计划书生成任务
type PlanJobPublisher struct {
	producer *Producer
}

// NewPlanJobPublisher 创建任务发布器
func NewPlanJobPublisher(producer *Producer) *PlanJobPublisher {
	return &PlanJobPublisher{producer: producer}
}

// Publish 发布任务
func (p *PlanJobPublisher) Publish(ctx context.Context, jobID, requestID string) error {
	_, err := p.producer.PublishPlanJob(ctx, &PlanGenerateMessage{JobID: jobID, RequestID: requestID})
	return err
}
