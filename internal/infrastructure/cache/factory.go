package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// StoreFactory creates the durable key/value store based on configuration
type StoreFactory struct {
	redisConfig           RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the store: Redis when reachable, otherwise an in-memory
// fallback if allowed. An in-memory store does not share state across
// instances and loses stashed carts on restart.
func (f *StoreFactory) Create() (shared.KeyValueStore, error) {
	store, err := NewRedisStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis cart store",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("failed to create Redis store: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cart store; stashed carts will not survive a restart",
		zap.Error(err))
	return NewInMemoryStore(), nil
}
