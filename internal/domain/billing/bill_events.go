package billing

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillCreatedEvent is raised when a new bill is created
type BillCreatedEvent struct {
	shared.BaseDomainEvent
	BillID      uuid.UUID       `json:"bill_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	DueDate     time.Time       `json:"due_date"`
	IsRecurring bool            `json:"is_recurring"`
}

// EventType returns the event type name
func (e *BillCreatedEvent) EventType() string {
	return "BillCreated"
}

// NewBillCreatedEvent creates a new BillCreatedEvent
func NewBillCreatedEvent(b *Bill) *BillCreatedEvent {
	return &BillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillCreated", "Bill", b.ID, b.OwnerID),
		BillID:          b.ID,
		Description:     b.Description,
		Amount:          b.Amount,
		Direction:       b.Direction,
		DueDate:         b.DueDate,
		IsRecurring:     b.IsRecurring,
	}
}

// BillOverdueEvent is raised when a pending bill passes its due date
type BillOverdueEvent struct {
	shared.BaseDomainEvent
	BillID      uuid.UUID       `json:"bill_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *BillOverdueEvent) EventType() string {
	return "BillOverdue"
}

// NewBillOverdueEvent creates a new BillOverdueEvent
func NewBillOverdueEvent(b *Bill) *BillOverdueEvent {
	return &BillOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillOverdue", "Bill", b.ID, b.OwnerID),
		BillID:          b.ID,
		Description:     b.Description,
		Amount:          b.Amount,
		DueDate:         b.DueDate,
	}
}

// BillSettledEvent is raised when a bill is settled against an account
type BillSettledEvent struct {
	shared.BaseDomainEvent
	BillID      uuid.UUID       `json:"bill_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	AccountID   uuid.UUID       `json:"account_id"`
	PaymentDate time.Time       `json:"payment_date"`
	IsRecurring bool            `json:"is_recurring"`
}

// EventType returns the event type name
func (e *BillSettledEvent) EventType() string {
	return "BillSettled"
}

// NewBillSettledEvent creates a new BillSettledEvent
func NewBillSettledEvent(b *Bill) *BillSettledEvent {
	var paymentDate time.Time
	if b.PaymentDate != nil {
		paymentDate = *b.PaymentDate
	}
	return &BillSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillSettled", "Bill", b.ID, b.OwnerID),
		BillID:          b.ID,
		Description:     b.Description,
		Amount:          b.Amount,
		Direction:       b.Direction,
		AccountID:       b.AccountID,
		PaymentDate:     paymentDate,
		IsRecurring:     b.IsRecurring,
	}
}

// BillCancelledEvent is raised when a bill is cancelled
type BillCancelledEvent struct {
	shared.BaseDomainEvent
	BillID      uuid.UUID `json:"bill_id"`
	Description string    `json:"description"`
}

// EventType returns the event type name
func (e *BillCancelledEvent) EventType() string {
	return "BillCancelled"
}

// NewBillCancelledEvent creates a new BillCancelledEvent
func NewBillCancelledEvent(b *Bill) *BillCancelledEvent {
	return &BillCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillCancelled", "Bill", b.ID, b.OwnerID),
		BillID:          b.ID,
		Description:     b.Description,
	}
}
