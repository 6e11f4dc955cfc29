package app

import (
	"go-backoffice/internal/config"
	"go-backoffice/internal/middleware"
	"go-backoffice/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BuildApp connects the infrastructure, migrates the schema and mounts the
// routes. The returned cleanup closes the connections.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(), error) {
	logger := zap.L()

	// 1. Setup Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Postgres, cfg.ConnectRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	if err := connection.RunMigrations(cfg.Postgres, cfg.MigrationsPath); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("redis connection established")

	cleanup := func() {
		_ = redisClient.Close()
		_ = sqlDB.Close()
	}

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(logger),
		middleware.RateLimitByIP(rateLimitFor(cfg), cfg.RateLimitBurst*2),
	)

	// 2. Register Modules & Routes
	if err := registerModules(router, cfg, sqlDB, gormDB, redisClient, logger); err != nil {
		cleanup()
		return nil, err
	}

	return cleanup, nil
}

// rateLimitFor is the per-IP budget in front of every route; the per-user
// limit on the payroll group is the tighter one.
func rateLimitFor(cfg *config.Config) rate.Limit {
	if cfg.RateLimitRPS <= 0 {
		return rate.Inf
	}
	return rate.Limit(cfg.RateLimitRPS * 4)
}
