//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"nb-studio-api/internal/application/version"
	"nb-studio-api/internal/config"
	"nb-studio-api/internal/domain/repository"
	"nb-studio-api/internal/infrastructure/persistence/postgres"
	"nb-studio-api/internal/infrastructure/persistence/redis"
	"nb-studio-api/internal/interfaces/http/handler"
	"nb-studio-api/internal/interfaces/http/middleware"
	"nb-studio-api/internal/interfaces/http/router"
)

// InitializeDataLayer 初始化数据层
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		VersionSet,
		wire.Struct(new(DataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		VersionSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewSpaceRepository,
	postgres.NewNotebookRepository,
	postgres.NewNotebookVersionRepository,
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

// VersionSet 版本控制引擎提供者集合
var VersionSet = wire.NewSet(
	ProvideVersioningConfig,
	version.NewService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	handler.NewHealthHandler,
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewSpaceHandler,
	handler.NewNotebookHandler,
	handler.NewVersionHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.ActorResolver), new(*postgres.UserRepository)),
	wire.Bind(new(repository.SpaceRepository), new(*postgres.SpaceRepository)),
	wire.Bind(new(repository.NotebookRepository), new(*postgres.NotebookRepository)),
	wire.Bind(new(repository.NotebookVersionRepository), new(*postgres.NotebookVersionRepository)),
)
