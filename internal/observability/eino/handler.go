package eino

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"psst-builder-api/pkg/logger"
	"psst-builder-api/pkg/metrics"
)

// startTimeKey 在 Context 中存储节点开始时间，OnEnd/OnError 据此计算耗时
type startTimeKey struct{}

// newLambdaCallbackHandler 创建链路节点回调：每个节点一个 Span，并上报耗时
func newLambdaCallbackHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			ctx = context.WithValue(ctx, startTimeKey{}, time.Now())
			ctx, _ = otel.Tracer("eino").Start(ctx, "chain."+nodeName(info),
				trace.WithAttributes(
					attribute.String("eino.node_name", nodeName(info)),
					attribute.String("eino.component", componentOf(info)),
				),
			)
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			observeNode(ctx, info, "success")
			trace.SpanFromContext(ctx).End()
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			observeNode(ctx, info, "error")
			logger.Warn(ctx, "chain node failed", "node", nodeName(info), "error", err.Error())

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		}).
		Build()
}

func observeNode(ctx context.Context, info *einocb.RunInfo, status string) {
	if d := elapsedSeconds(ctx); d > 0 {
		metrics.ChainNodeDuration.WithLabelValues(nodeName(info), status).Observe(d)
	}
}

func nodeName(info *einocb.RunInfo) string {
	if info == nil || info.Name == "" {
		return "unknown"
	}
	return info.Name
}

func componentOf(info *einocb.RunInfo) string {
	if info == nil {
		return ""
	}
	return string(info.Component)
}

// elapsedSeconds 计算从 OnStart 到当前的耗时（秒），取不到开始时间时返回 0
func elapsedSeconds(ctx context.Context) float64 {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}
