package billing

import (
	"context"

	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/fintrack/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BillAuditHandler writes a structured audit line for every bill lifecycle
// event. It is the default subscriber wired in the server; external
// notification channels can subscribe alongside it.
type BillAuditHandler struct {
	logger *zap.Logger
}

// NewBillAuditHandler creates a new BillAuditHandler
func NewBillAuditHandler(logger *zap.Logger) *BillAuditHandler {
	return &BillAuditHandler{logger: logger}
}

// EventTypes returns the bill lifecycle event types
func (h *BillAuditHandler) EventTypes() []string {
	return []string{"BillCreated", "BillOverdue", "BillSettled", "BillCancelled"}
}

// Handle logs the event with its type-specific fields
func (h *BillAuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("bill_id", event.AggregateID().String()),
		zap.String("owner_id", event.OwnerID().String()),
	}

	switch e := event.(type) {
	case *billing.BillCreatedEvent:
		fields = append(fields,
			zap.String("description", e.Description),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("direction", string(e.Direction)),
			zap.Time("due_date", e.DueDate),
			zap.Bool("is_recurring", e.IsRecurring),
		)
	case *billing.BillOverdueEvent:
		fields = append(fields,
			zap.String("description", e.Description),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.Time("due_date", e.DueDate),
		)
	case *billing.BillSettledEvent:
		fields = append(fields,
			zap.String("description", e.Description),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("account_id", e.AccountID.String()),
			zap.Time("payment_date", e.PaymentDate),
		)
	case *billing.BillCancelledEvent:
		fields = append(fields, zap.String("description", e.Description))
	}

	h.logger.Info("bill lifecycle event", fields...)
	return nil
}

var _ shared.EventHandler = (*BillAuditHandler)(nil)
