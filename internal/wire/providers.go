// Package wire 提供依赖注入配置
package wire

import (
	"nb-studio-api/internal/application/version"
	"nb-studio-api/internal/config"
	"nb-studio-api/internal/infrastructure/messaging"
	"nb-studio-api/internal/infrastructure/persistence/postgres"
	"nb-studio-api/internal/infrastructure/persistence/redis"
	"nb-studio-api/internal/interfaces/http/middleware"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	// PostgreSQL
	PgClient     *postgres.Client
	TxManager    *postgres.TxManager
	UserRepo     *postgres.UserRepository
	SpaceRepo    *postgres.SpaceRepository
	NotebookRepo *postgres.NotebookRepository
	VersionRepo  *postgres.NotebookVersionRepository

	// Redis
	RedisClient *redis.Client
	Cache       *redis.Cache
	RateLimiter *redis.RateLimiter

	// Messaging
	Producer *messaging.Producer

	// 版本控制引擎
	VersionService *version.Service
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient     *postgres.Client
	TxManager    *postgres.TxManager
	UserRepo     *postgres.UserRepository
	SpaceRepo    *postgres.SpaceRepository
	NotebookRepo *postgres.NotebookRepository
	VersionRepo  *postgres.NotebookVersionRepository
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
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideVersioningConfig 提供版本控制引擎配置
func ProvideVersioningConfig(cfg *config.Config) config.VersioningConfig {
	return cfg.Versioning
}

// ProvideAuthConfig 提供认证配置
func ProvideAuthConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Secret:    cfg.Security.JWT.Secret,
		Issuer:    cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   true,
	}
}
