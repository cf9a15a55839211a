package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
)

// claim represents a held settlement key with expiration
type claim struct {
	expiresAt time.Time
}

// InMemorySettlementGuard implements SettlementGuard using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemorySettlementGuard struct {
	mu        sync.Mutex
	claims    map[string]claim
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySettlementGuard creates a new in-memory settlement guard
// It starts a background goroutine to clean up expired claims
func NewInMemorySettlementGuard() *InMemorySettlementGuard {
	guard := &InMemorySettlementGuard{
		claims:   make(map[string]claim),
		stopChan: make(chan struct{}),
	}

	guard.wg.Add(1)
	go guard.cleanupLoop()

	return guard
}

// Acquire claims the settlement key with a TTL.
// Returns true if the key was newly claimed, false if it is already held
// and not yet expired.
func (g *InMemorySettlementGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, exists := g.claims[key]; exists {
		if time.Now().Before(c.expiresAt) {
			return false, nil // Held by an in-flight settlement
		}
		// Claim exists but expired, will be overwritten
	}

	g.claims[key] = claim{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// Release frees the settlement key
func (g *InMemorySettlementGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, key)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (g *InMemorySettlementGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired claims
func (g *InMemorySettlementGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

// cleanup removes expired claims from the guard
func (g *InMemorySettlementGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, c := range g.claims {
		if now.After(c.expiresAt) {
			delete(g.claims, key)
		}
	}
}

// Size returns the number of claims in the guard (for testing/monitoring)
func (g *InMemorySettlementGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.claims)
}

// Ensure InMemorySettlementGuard implements SettlementGuard
var _ shared.SettlementGuard = (*InMemorySettlementGuard)(nil)
