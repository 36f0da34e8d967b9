// Package router 提供 HTTP 路由配置
package router

import (
	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/interfaces/http/handler"
	"dtf-editor-api/internal/interfaces/http/middleware"
	"dtf-editor-api/internal/infrastructure/persistence/redis"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由所需的处理器集合
type Handlers struct {
	Health  *handler.HealthHandler
	Process *handler.ProcessHandler
	Job     *handler.JobHandler
	Credits *handler.CreditsHandler
	DPI     *handler.DPIHandler
	Admin   *handler.AdminHandler
}

// Router HTTP 路由器
type Router struct {
	engine      *gin.Engine
	cfg         *config.Config
	handlers    *Handlers
	rateLimiter *redis.RateLimiter
}

// New 创建新的路由器
func New(cfg *config.Config, handlers *Handlers, rateLimiter *redis.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:      gin.New(),
		cfg:         cfg,
		handlers:    handlers,
		rateLimiter: rateLimiter,
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

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: r.cfg.Security.RateLimit.RequestsPerSecond,
		Burst:             r.cfg.Security.RateLimit.Burst,
		KeyPrefix:         "ratelimit",
	}, r.rateLimiter))

	r.engine.Use(middleware.Auth(middleware.AuthConfig{
		Secret:    r.cfg.Security.JWT.Secret,
		Issuer:    r.cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   r.cfg.Security.JWT.Secret != "",
	}))

	r.engine.Use(middleware.Audit())
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	RegisterV1Routes(r.engine.Group("/v1"), r.handlers)
}
