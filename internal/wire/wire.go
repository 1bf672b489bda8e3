//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"psst-builder-api/internal/application/credential"
	"psst-builder-api/internal/application/job"
	"psst-builder-api/internal/application/plan"
	"psst-builder-api/internal/config"
	"psst-builder-api/internal/domain/repository"
	"psst-builder-api/internal/infrastructure/llm"
	"psst-builder-api/internal/infrastructure/messaging"
	"psst-builder-api/internal/infrastructure/persistence/postgres"
	"psst-builder-api/internal/infrastructure/persistence/redis"
	"psst-builder-api/internal/interfaces/http/handler"
	"psst-builder-api/internal/interfaces/http/middleware"
	"psst-builder-api/internal/interfaces/http/router"
	"psst-builder-api/internal/workflow/port"
)

// InitializeApp 初始化 API 网关
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		GenerationSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化异步任务执行器
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		GenerationSet,
		ProvideProcessor,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewJobRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.JobRepository), new(*postgres.JobRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewPlanStore,
	redis.NewRateLimiter,
	wire.Bind(new(repository.PlanRepository), new(*redis.PlanStore)),
	wire.Bind(new(repository.JobInputRepository), new(*redis.PlanStore)),
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	messaging.NewPlanJobPublisher,
	wire.Bind(new(job.Publisher), new(*messaging.PlanJobPublisher)),
)

// GenerationSet 凭证解析与生成编排
var GenerationSet = wire.NewSet(
	ProvideCredentialBridge,
	ProvideCredentialStore,
	ProvideCredentialResolver,
	ProvideCredentialState,
	llm.NewGeminiFactory,
	llm.NewGeminiTextModel,
	llm.NewGeminiImageModel,
	wire.Bind(new(port.TextModel), new(*llm.GeminiTextModel)),
	wire.Bind(new(port.ImageModel), new(*llm.GeminiImageModel)),
	ProvideDocumentGenerator,
	ProvideImageGenerator,
	plan.NewOrchestrator,
	wire.Bind(new(plan.CredentialState), new(*credential.State)),
	wire.Bind(new(plan.DocumentProducer), new(*plan.DocumentGenerator)),
	wire.Bind(new(plan.ImageProducer), new(*plan.ImageGenerator)),
	wire.Bind(new(job.PlanRunner), new(*plan.Orchestrator)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAttachmentLimits,
	ProvideJobService,
	ProvideHealthHandler,
	ProvidePlanHandler,
	handler.NewJobHandler,
	handler.NewCredentialHandler,
	wire.Bind(new(handler.CredentialService), new(*credential.Resolver)),
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)
