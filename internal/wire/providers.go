// Package wire 提供依赖注入配置
package wire

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"dtf-editor-api/internal/application/jobtrack"
	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/domain/service"
	"dtf-editor-api/internal/infrastructure/messaging"
	"dtf-editor-api/internal/infrastructure/persistence/postgres"
	"dtf-editor-api/internal/infrastructure/persistence/redis"
	"dtf-editor-api/internal/infrastructure/provider"
	"dtf-editor-api/internal/interfaces/http/router"
)

// App API 网关依赖容器
type App struct {
	Router      *router.Router
	PgClient    *postgres.Client
	RedisClient *redis.Client
	Tracker     *jobtrack.Tracker
}

// WorkerApp 任务执行器依赖容器
type WorkerApp struct {
	Consumer *messaging.Consumer
	Worker   *processing.Worker
	Tracker  *jobtrack.Tracker
	PgClient *postgres.Client
}

// BootstrapApp 建库依赖容器
type BootstrapApp struct {
	PgClient *postgres.Client
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
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
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideConsumer 提供任务流消费者
func ProvideConsumer(redisClient *redis.Client, cfg *config.Config) *messaging.Consumer {
	sc := cfg.Messaging.RedisStream
	hostname, _ := os.Hostname()
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamImageJobs,
		Group:         messaging.ConsumerGroupJobWorker,
		ConsumerName:  fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
		BlockTimeout:  sc.BlockTimeout,
		ClaimInterval: sc.ClaimInterval,
		RetryLimit:    sc.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    sc.RetryBackoff.Initial,
			Max:        sc.RetryBackoff.Max,
			Multiplier: sc.RetryBackoff.Multiplier,
		},
	})
}

// ProvideWorker 提供任务执行器，轮询参数取各供应商中最保守的配置
func ProvideWorker(
	jobRepo repository.JobRepository,
	registry service.ProviderRegistry,
	orchestrator *processing.Orchestrator,
	cache *redis.Cache,
	cfg *config.Config,
) *processing.Worker {
	pc := cfg.Providers.DeepImage
	return processing.NewWorker(jobRepo, registry, orchestrator, cache, pc.PollInterval, pc.MaxPolls)
}

// ProvideDeepImageClient 提供 Deep-Image 客户端
func ProvideDeepImageClient(cfg *config.Config) *provider.DeepImageClient {
	return provider.NewDeepImageClient(cfg.Providers.DeepImage)
}

// ProvideClippingMagicClient 提供 ClippingMagic 客户端
func ProvideClippingMagicClient(cfg *config.Config) *provider.ClippingMagicClient {
	return provider.NewClippingMagicClient(cfg.Providers.ClippingMagic)
}

// ProvideVectorizerClient 提供 Vectorizer 客户端
func ProvideVectorizerClient(cfg *config.Config) *provider.VectorizerClient {
	return provider.NewVectorizerClient(cfg.Providers.Vectorizer)
}

// ProvideOpenAIClient 提供 OpenAI 客户端
func ProvideOpenAIClient(cfg *config.Config) *provider.OpenAIClient {
	return provider.NewOpenAIClient(cfg.Providers.OpenAI)
}

// ProvideProcessingConfig 提供处理配置
func ProvideProcessingConfig(cfg *config.Config) *config.ProcessingConfig {
	return &cfg.Processing
}

// ProvideDimensionPlanner 提供尺寸规划器
func ProvideDimensionPlanner(cfg *config.ProcessingConfig) *processing.DimensionPlanner {
	return processing.NewDimensionPlanner(cfg.Limits.MaxSidePixels, cfg.Limits.MaxMegapixels)
}
