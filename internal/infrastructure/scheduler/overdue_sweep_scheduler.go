package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fintrack/backend/internal/application/billing"
	"go.uber.org/zap"
)

// OverdueSweepScheduler periodically promotes expired pending bills to overdue.
// The sweep is idempotent, so overlapping instances or restarts are harmless.
type OverdueSweepScheduler struct {
	service   *billing.OverdueService
	logger    *zap.Logger
	config    OverdueSweepSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// OverdueSweepSchedulerConfig holds configuration for the overdue sweep scheduler
type OverdueSweepSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SweepInterval is how often the sweep runs
	SweepInterval time.Duration

	// SweepOnStart runs a sweep immediately when the scheduler starts,
	// catching bills that expired while the process was down
	SweepOnStart bool

	// SweepTimeout is the maximum time for a single sweep run
	SweepTimeout time.Duration
}

// DefaultOverdueSweepSchedulerConfig returns default configuration
func DefaultOverdueSweepSchedulerConfig() OverdueSweepSchedulerConfig {
	return OverdueSweepSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
		SweepOnStart:  true,
		SweepTimeout:  5 * time.Minute,
	}
}

// NewOverdueSweepScheduler creates a new overdue sweep scheduler
func NewOverdueSweepScheduler(
	service *billing.OverdueService,
	logger *zap.Logger,
	config OverdueSweepSchedulerConfig,
) *OverdueSweepScheduler {
	return &OverdueSweepScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the overdue sweep scheduler
func (s *OverdueSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Overdue sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Overdue sweep scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Bool("sweep_on_start", s.config.SweepOnStart),
	)

	return nil
}

// Stop stops the scheduler and waits for an in-flight sweep to finish
func (s *OverdueSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNow runs a sweep immediately, outside the regular cadence.
// Used by the administrative sweep endpoint.
func (s *OverdueSweepScheduler) TriggerNow(ctx context.Context) (*billing.OverdueSweepStats, error) {
	return s.runSweep(ctx)
}

// runLoop runs sweeps on the configured interval
func (s *OverdueSweepScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.SweepOnStart {
		if _, err := s.runSweep(ctx); err != nil {
			s.logger.Error("Startup overdue sweep failed", zap.Error(err))
		}
	}

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.runSweep(ctx); err != nil {
				s.logger.Error("Scheduled overdue sweep failed", zap.Error(err))
			}
		}
	}
}

// runSweep executes a single bounded sweep
func (s *OverdueSweepScheduler) runSweep(ctx context.Context) (*billing.OverdueSweepStats, error) {
	sweepCtx := ctx
	if s.config.SweepTimeout > 0 {
		var cancel context.CancelFunc
		sweepCtx, cancel = context.WithTimeout(ctx, s.config.SweepTimeout)
		defer cancel()
	}

	return s.service.PromoteExpired(sweepCtx, time.Now())
}

// IsRunning reports whether the scheduler loop is active
func (s *OverdueSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
