// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/spf13/afero"

	"psst-builder-api/internal/application/credential"
	"psst-builder-api/internal/application/job"
	"psst-builder-api/internal/application/plan"
	"psst-builder-api/internal/config"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/domain/repository"
	"psst-builder-api/internal/infrastructure/bridge"
	"psst-builder-api/internal/infrastructure/messaging"
	"psst-builder-api/internal/infrastructure/persistence/postgres"
	"psst-builder-api/internal/infrastructure/persistence/redis"
	"psst-builder-api/internal/interfaces/http/handler"
	"psst-builder-api/internal/interfaces/http/middleware"
	"psst-builder-api/internal/interfaces/http/router"
	"psst-builder-api/internal/workflow/port"
	"psst-builder-api/pkg/logger"
)

// App API 网关依赖容器
type App struct {
	Router   *router.Router
	Resolver *credential.Resolver
}

// Worker 任务执行器依赖容器
type Worker struct {
	Processor   *job.Processor
	Resolver    *credential.Resolver
	RedisClient *redis.Client
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideCredentialBridge 未配置宿主桥接时返回 nil 接口
func ProvideCredentialBridge(ctx context.Context, cfg *config.Config) credential.Bridge {
	b := bridge.NewHTTPBridge(cfg)
	if b == nil {
		logger.Info(ctx, "credential bridge not configured")
		return nil
	}
	return b
}

// ProvideCredentialStore 本地用户凭证存储
func ProvideCredentialStore(cfg *config.Config) credential.Store {
	if cfg.Credential.StorePath == "" {
		return nil
	}
	return credential.NewFileStore(afero.NewOsFs(), cfg.Credential.StorePath)
}

// ProvideCredentialResolver 提供凭证解析器
func ProvideCredentialResolver(cfg *config.Config, b credential.Bridge, store credential.Store) *credential.Resolver {
	return credential.NewResolver(credential.Options{
		StaticKey:    config.ResolveStaticAPIKey(cfg),
		PollInterval: cfg.Credential.PollInterval,
	}, b, store)
}

// ProvideCredentialState 提供凭证状态
func ProvideCredentialState(r *credential.Resolver) *credential.State {
	return r.State()
}

// ProvideDocumentGenerator 提供文档生成器
func ProvideDocumentGenerator(model port.TextModel, cfg *config.Config) *plan.DocumentGenerator {
	g := cfg.LLM.Gemini
	return plan.NewDocumentGenerator(model, plan.DocumentGeneratorConfig{
		Model:           g.TextModel,
		MaxOutputTokens: g.MaxOutputTokens,
		ThinkingBudget:  g.ThinkingBudget,
		Timeout:         g.TextTimeout,
	})
}

// ProvideImageGenerator 提供插图生成器
func ProvideImageGenerator(model port.ImageModel, cfg *config.Config) *plan.ImageGenerator {
	g := cfg.LLM.Gemini
	return plan.NewImageGenerator(model, plan.ImageGeneratorConfig{
		Model:       g.ImageModel,
		AspectRatio: g.AspectRatio,
		ImageSize:   g.ImageSize,
		Concurrency: cfg.Generation.ImageConcurrency,
		Timeout:     g.ImageTimeout,
	})
}

// ProvideAttachmentLimits 附件上限
func ProvideAttachmentLimits(cfg *config.Config) entity.AttachmentLimits {
	return entity.AttachmentLimits{
		MaxCount:      cfg.Generation.MaxAttachments,
		MaxTotalBytes: cfg.Generation.MaxAttachmentBytes,
	}
}

// ProvideJobService 提供任务服务
func ProvideJobService(
	jobs repository.JobRepository,
	inputs repository.JobInputRepository,
	tx repository.Transactor,
	publisher job.Publisher,
	limits entity.AttachmentLimits,
	cfg *config.Config,
) *job.Service {
	return job.NewService(jobs, inputs, tx, publisher, job.ServiceConfig{
		Limits:   limits,
		InputTTL: cfg.Generation.ResultTTL,
	})
}

// ProvideProcessor 提供任务执行器
func ProvideProcessor(
	jobs repository.JobRepository,
	inputs repository.JobInputRepository,
	plans repository.PlanRepository,
	runner job.PlanRunner,
	cfg *config.Config,
) *job.Processor {
	return job.NewProcessor(jobs, inputs, plans, runner, cfg.Generation.ResultTTL)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client, state *credential.State) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, map[string]handler.HealthChecker{
		"postgres": pg,
		"redis":    rdb,
	}, state)
}

// ProvidePlanHandler 提供计划书处理器
func ProvidePlanHandler(runner job.PlanRunner, plans repository.PlanRepository, limits entity.AttachmentLimits, cfg *config.Config) *handler.PlanHandler {
	return handler.NewPlanHandler(runner, plans, handler.PlanHandlerConfig{
		Limits:    limits,
		ResultTTL: cfg.Generation.ResultTTL,
	})
}

// ProvideRouter 提供路由器
func ProvideRouter(cfg *config.Config, handlers router.Handlers, limiter middleware.RateLimiter) *router.Router {
	return router.New(cfg, handlers, limiter, redis.BuildRateLimitKey)
}
