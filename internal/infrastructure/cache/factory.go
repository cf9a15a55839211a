package cache

import (
	"fmt"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SettlementGuardFactory creates settlement guards based on configuration
type SettlementGuardFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SettlementGuardFactoryOption is a functional option for configuring the factory
type SettlementGuardFactoryOption func(*SettlementGuardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SettlementGuardFactoryOption {
	return func(f *SettlementGuardFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory guard
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) SettlementGuardFactoryOption {
	return func(f *SettlementGuardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSettlementGuardFactory creates a new factory
func NewSettlementGuardFactory(cfg config.RedisConfig, opts ...SettlementGuardFactoryOption) *SettlementGuardFactory {
	f := &SettlementGuardFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisGuard creates a Redis-backed settlement guard
func (f *SettlementGuardFactory) CreateRedisGuard() (shared.SettlementGuard, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	guard, err := NewRedisSettlementGuard(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis settlement guard: %w", err)
	}

	return guard, nil
}

// CreateInMemoryGuard creates an in-memory settlement guard
// This is suitable for single-instance deployments and testing
// WARNING: In-memory guards do not share state across process instances,
// which can let concurrent settlements of the same bill run on different nodes
func (f *SettlementGuardFactory) CreateInMemoryGuard() shared.SettlementGuard {
	return NewInMemorySettlementGuard()
}

// CreateGuard creates a settlement guard based on whether Redis is available
// It tries Redis first, and falls back to in-memory if Redis is not available
// and AllowInMemoryFallback is true
func (f *SettlementGuardFactory) CreateGuard() (shared.SettlementGuard, error) {
	guard, err := f.CreateRedisGuard()
	if err == nil {
		f.logger.Info("using Redis settlement guard")
		return guard, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for settlement serialization but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory settlement guard. "+
		"Settlements on other instances will not be serialized.",
		zap.Error(err),
	)
	return f.CreateInMemoryGuard(), nil
}
