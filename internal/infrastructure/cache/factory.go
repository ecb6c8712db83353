package cache

import (
	"fmt"

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the store the config asks for. The
// "memory" backend is fine for development; "redis" is required in
// production so replay state survives restarts.
func NewIdempotencyStore(cfg config.IdempotencyConfig, redisCfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case "redis":
		store, err := NewRedisIdempotencyStore(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("redis idempotency store: %w", err)
		}
		logger.Info("using redis idempotency store",
			zap.String("host", redisCfg.Host),
			zap.Duration("ttl", cfg.TTL))
		return store, nil
	case "memory":
		logger.Info("using in-memory idempotency store", zap.Duration("ttl", cfg.TTL))
		return NewInMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}
