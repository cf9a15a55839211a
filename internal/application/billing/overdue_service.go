package billing

import (
	"context"
	"time"

	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/fintrack/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OverdueService promotes pending bills past their due date to overdue.
// The sweep is idempotent: a bill already overdue, paid or cancelled is
// never touched, so running it twice for the same day changes nothing.
type OverdueService struct {
	billRepo billing.BillRepository
	eventBus shared.EventBus
	logger   *zap.Logger
}

// NewOverdueService creates a new OverdueService
func NewOverdueService(
	billRepo billing.BillRepository,
	eventBus shared.EventBus,
	logger *zap.Logger,
) *OverdueService {
	return &OverdueService{
		billRepo: billRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// SetEventBus sets the event bus for publishing events
// This is useful when the event bus is not available at construction time
func (s *OverdueService) SetEventBus(eventBus shared.EventBus) {
	s.eventBus = eventBus
}

// OverdueSweepStats contains statistics about one overdue promotion sweep
type OverdueSweepStats struct {
	TotalExpired    int       `json:"total_expired"`
	Promoted        int       `json:"promoted"`
	FailedPromotion int       `json:"failed_promotion"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// PromoteExpired finds all pending bills whose due date lies strictly before
// the given day and marks them overdue, publishing an event for each.
func (s *OverdueService) PromoteExpired(ctx context.Context, asOf time.Time) (*OverdueSweepStats, error) {
	stats := &OverdueSweepStats{
		ProcessedAt: time.Now(),
	}

	expired, err := s.billRepo.FindExpiredPending(ctx, asOf)
	if err != nil {
		s.logger.Error("Failed to find expired pending bills", zap.Error(err))
		return nil, err
	}

	stats.TotalExpired = len(expired)
	if stats.TotalExpired == 0 {
		s.logger.Debug("No expired pending bills found")
		return stats, nil
	}

	s.logger.Info("Found expired pending bills",
		zap.Int("count", stats.TotalExpired),
	)

	for i := range expired {
		if err := s.promoteBill(ctx, &expired[i], asOf); err != nil {
			s.logger.Error("Failed to promote expired bill",
				zap.String("bill_id", expired[i].ID.String()),
				zap.String("description", expired[i].Description),
				zap.Time("due_date", expired[i].DueDate),
				zap.Error(err),
			)
			stats.FailedPromotion++
			continue
		}
		stats.Promoted++
	}

	s.logger.Info("Completed overdue promotion sweep",
		zap.Int("total", stats.TotalExpired),
		zap.Int("promoted", stats.Promoted),
		zap.Int("failed", stats.FailedPromotion),
	)

	return stats, nil
}

// promoteBill marks a single bill overdue and publishes its event
func (s *OverdueService) promoteBill(ctx context.Context, bill *billing.Bill, asOf time.Time) error {
	if !bill.MarkOverdue(asOf) {
		// Another sweep or a settlement got there first; nothing to do.
		return nil
	}

	if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
		return err
	}

	if s.eventBus != nil {
		for _, event := range bill.GetDomainEvents() {
			if err := s.eventBus.Publish(ctx, event); err != nil {
				s.logger.Warn("Failed to publish overdue event",
					zap.String("event_type", event.EventType()),
					zap.String("bill_id", bill.ID.String()),
					zap.Error(err),
				)
			}
		}
	}
	bill.ClearDomainEvents()

	return nil
}
