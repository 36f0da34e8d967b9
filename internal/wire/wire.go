//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"dtf-editor-api/internal/application/costtrack"
	"dtf-editor-api/internal/application/jobtrack"
	"dtf-editor-api/internal/application/ledger"
	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/domain/service"
	"dtf-editor-api/internal/infrastructure/persistence/postgres"
	"dtf-editor-api/internal/infrastructure/persistence/redis"
	"dtf-editor-api/internal/infrastructure/provider"
	"dtf-editor-api/internal/interfaces/http/handler"
	"dtf-editor-api/internal/interfaces/http/router"
)

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewAccountRepository,
	postgres.NewCreditTransactionRepository,
	postgres.NewJobRepository,
	postgres.NewCostRecordRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.AccountRepository), new(*postgres.AccountRepository)),
	wire.Bind(new(repository.CreditTransactionRepository), new(*postgres.CreditTransactionRepository)),
	wire.Bind(new(repository.JobRepository), new(*postgres.JobRepository)),
	wire.Bind(new(repository.CostRecordRepository), new(*postgres.CostRecordRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
)

// ProviderSet 外部供应商提供者集合
var ProviderSet = wire.NewSet(
	ProvideDeepImageClient,
	ProvideClippingMagicClient,
	ProvideVectorizerClient,
	ProvideOpenAIClient,
	provider.NewRegistry,
	wire.Bind(new(service.ProviderRegistry), new(*provider.Registry)),
)

// ApplicationSet 应用层提供者集合
var ApplicationSet = wire.NewSet(
	ledger.NewService,
	costtrack.NewRecorder,
	wire.Bind(new(service.CostRecorder), new(*costtrack.Recorder)),
	ProvideProcessingConfig,
	ProvideDimensionPlanner,
	processing.NewOrchestrator,
	jobtrack.NewTracker,
	wire.Bind(new(jobtrack.StatusCache), new(*redis.Cache)),
	wire.Bind(new(jobtrack.Finalizer), new(*processing.Orchestrator)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewProcessHandler,
	handler.NewJobHandler,
	handler.NewCreditsHandler,
	handler.NewDPIHandler,
	handler.NewAdminHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// InitializeApp 初始化 API 网关
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MessagingSet,
		ProviderSet,
		ApplicationSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化任务执行器
func InitializeWorker(ctx context.Context, cfg *config.Config) (*WorkerApp, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MessagingSet,
		ProviderSet,
		ApplicationSet,
		ProvideConsumer,
		ProvideWorker,
		wire.Struct(new(WorkerApp), "*"),
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化建库依赖
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*BootstrapApp, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		wire.Struct(new(BootstrapApp), "*"),
	)
	return nil, nil, nil
}
