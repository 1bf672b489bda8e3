// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"psst-builder-api/internal/config"
	"psst-builder-api/internal/interfaces/http/handler"
	"psst-builder-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Health     *handler.HealthHandler
	Plan       *handler.PlanHandler
	Job        *handler.JobHandler
	Credential *handler.CredentialHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  middleware.RateLimiter
	keyFn    middleware.KeyFunc
}

// New 创建新的路由器；limiter 为 nil 时不限流
func New(cfg *config.Config, handlers Handlers, limiter middleware.RateLimiter, keyFn middleware.KeyFunc) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
		keyFn:    keyFn,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	corsCfg := r.cfg.Security.CORS
	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		ExposedHeaders:   corsCfg.ExposedHeaders,
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	// 系统端点
	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:  r.cfg.Security.RateLimit.Enabled,
		Requests: r.cfg.Security.RateLimit.Requests,
		Window:   r.cfg.Security.RateLimit.Window,
	}, r.limiter, r.keyFn)
	bodyLimit := middleware.BodyLimit(r.cfg.Server.HTTP.MaxBodyBytes)

	v1 := r.engine.Group(handler.APIBasePath)
	{
		plans := v1.Group("/plans")
		{
			plans.POST("/generate", limit, bodyLimit, h.Plan.Generate)

			plans.POST("/jobs", limit, bodyLimit, h.Job.CreateJob)
			plans.GET("/jobs", h.Job.ListJobs)
			plans.GET("/jobs/:id", h.Job.GetJob)

			plans.GET("/:id", h.Plan.GetPlan)
			plans.GET("/:id/images/:index", h.Plan.GetImage)
		}

		cred := v1.Group("/credential")
		{
			cred.GET("", h.Credential.Status)
			cred.PUT("", bodyLimit, h.Credential.Store)
			cred.POST("/select", h.Credential.Select)
		}
	}
}
