package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"nearby-api/internal/config"
	"nearby-api/internal/logger"
)

// OpenRedis returns a client for cfg, or nil when redis is disabled or
// unreachable. Callers treat a nil client as "no redis".
func OpenRedis(ctx context.Context, cfg config.Redis) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	rc := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Pass, DB: cfg.DB})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		logger.L().Warn("redis_unavailable", "addr", cfg.Addr(), "err", err)
		_ = rc.Close()
		return nil
	}
	logger.L().Debug("redis_open_ok", "addr", cfg.Addr(), "db", cfg.DB)
	return rc
}
