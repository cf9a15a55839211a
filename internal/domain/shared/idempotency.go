package shared

import (
	"context"
	"time"
)

// SettlementGuard serializes settlement attempts across clients.
// Acquire is an atomic set-if-absent keyed by bill ID: the first caller wins
// the key for the TTL, every other caller observes an in-flight settlement.
type SettlementGuard interface {
	// Acquire claims the settlement key for the given bill.
	// Returns true if the key was newly claimed, false if another settlement
	// for the same bill is already in flight.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the settlement key once the attempt finished.
	Release(ctx context.Context, key string) error

	// Close closes the guard and releases resources
	Close() error
}

// SettlementGuardConfig holds configuration for settlement serialization
type SettlementGuardConfig struct {
	// TTL bounds how long a crashed settlement attempt can hold its key
	TTL time.Duration

	// Enabled determines whether per-bill serialization is enabled
	Enabled bool
}

// DefaultSettlementGuardConfig returns the default guard configuration
func DefaultSettlementGuardConfig() SettlementGuardConfig {
	return SettlementGuardConfig{
		TTL:     30 * time.Second,
		Enabled: true,
	}
}
