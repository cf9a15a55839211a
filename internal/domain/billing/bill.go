package billing

import (
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus represents the lifecycle status of a bill
type BillStatus string

const (
	BillStatusPending   BillStatus = "PENDING"   // Created, not yet due or due but unsettled
	BillStatusOverdue   BillStatus = "OVERDUE"   // Past due date, still unsettled
	BillStatusPaid      BillStatus = "PAID"      // Settled against an account
	BillStatusCancelled BillStatus = "CANCELLED" // Cancelled before settlement
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusOverdue, BillStatusPaid, BillStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the bill is in a terminal state
func (s BillStatus) IsTerminal() bool {
	return s == BillStatusPaid || s == BillStatusCancelled
}

// IsSettleable returns true if a bill in this status can be settled
func (s BillStatus) IsSettleable() bool {
	return s == BillStatusPending || s == BillStatusOverdue
}

// Direction tells whether money is owed (payable) or expected (receivable)
type Direction string

const (
	DirectionPayable    Direction = "PAYABLE"
	DirectionReceivable Direction = "RECEIVABLE"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionPayable || d == DirectionReceivable
}

// RecurrenceUnit is the cadence of a recurring bill
type RecurrenceUnit string

const (
	RecurrenceWeekly  RecurrenceUnit = "WEEKLY"
	RecurrenceMonthly RecurrenceUnit = "MONTHLY"
	RecurrenceYearly  RecurrenceUnit = "YEARLY"
)

// IsValid checks if the recurrence unit is valid
func (u RecurrenceUnit) IsValid() bool {
	switch u {
	case RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Bill represents a scheduled payable or receivable obligation.
// It is the aggregate root of the bill lifecycle: created pending, promoted
// to overdue when the due date passes, and settled exactly once against an
// account, which produces a correlated ledger transaction.
type Bill struct {
	shared.OwnedAggregateRoot
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	Direction        Direction       `json:"direction"`
	CategoryID       uuid.UUID       `json:"category_id"`
	AccountID        uuid.UUID       `json:"account_id"` // settlement account
	DueDate          time.Time       `json:"due_date"`
	Status           BillStatus      `json:"status"`
	PaymentDate      *time.Time      `json:"payment_date"` // set iff status == PAID
	IsRecurring      bool            `json:"is_recurring"`
	RecurrenceUnit   RecurrenceUnit  `json:"recurrence_unit"`
	InstallmentCount int             `json:"installment_count"`
	Notes            string          `json:"notes"`
	ContactName      string          `json:"contact_name"`
	ContactPhone     string          `json:"contact_phone"`
}

// BillParams carries the caller-supplied fields for a new bill
type BillParams struct {
	Description      string
	Amount           valueobject.Money
	Direction        Direction
	CategoryID       uuid.UUID
	AccountID        uuid.UUID
	DueDate          time.Time
	IsRecurring      bool
	RecurrenceUnit   RecurrenceUnit
	InstallmentCount int
	Notes            string
	ContactName      string
	ContactPhone     string
}

// NewBill creates a new pending bill
func NewBill(ownerID uuid.UUID, p BillParams) (*Bill, error) {
	if p.Description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Bill description cannot be empty")
	}
	if len(p.Description) > 200 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Bill description cannot exceed 200 characters")
	}
	if p.Amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Bill amount must be positive")
	}
	if !p.Direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Bill direction is not valid")
	}
	if p.AccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Settlement account ID cannot be empty")
	}
	if p.DueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Bill due date is required")
	}
	if p.IsRecurring && !p.RecurrenceUnit.IsValid() {
		return nil, shared.NewDomainError("INVALID_RECURRENCE", "Recurrence unit is required for recurring bills")
	}

	b := &Bill{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Description:        p.Description,
		Amount:             p.Amount.Amount(),
		Direction:          p.Direction,
		CategoryID:         p.CategoryID,
		AccountID:          p.AccountID,
		DueDate:            p.DueDate,
		Status:             BillStatusPending,
		IsRecurring:        p.IsRecurring,
		RecurrenceUnit:     p.RecurrenceUnit,
		InstallmentCount:   p.InstallmentCount,
		Notes:              p.Notes,
		ContactName:        p.ContactName,
		ContactPhone:       p.ContactPhone,
	}

	b.AddDomainEvent(NewBillCreatedEvent(b))

	return b, nil
}

// MarkOverdue promotes a pending bill past its due date to OVERDUE.
// It is idempotent: an already-overdue bill is a no-op, and paid or
// cancelled bills are never touched.
func (b *Bill) MarkOverdue(asOf time.Time) bool {
	if b.Status != BillStatusPending {
		return false
	}
	if !b.DueDate.Before(truncateToDay(asOf)) {
		return false
	}

	b.Status = BillStatusOverdue
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillOverdueEvent(b))

	return true
}

// Settle transitions the bill to PAID with the given payment date
func (b *Bill) Settle(paymentDate time.Time) error {
	if b.Status == BillStatusPaid {
		return ErrAlreadySettled(b)
	}
	if !b.Status.IsSettleable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot settle bill in %s status", b.Status))
	}
	if paymentDate.IsZero() {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}

	b.Status = BillStatusPaid
	b.PaymentDate = &paymentDate
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillSettledEvent(b))

	return nil
}

// Cancel cancels an unsettled bill
func (b *Bill) Cancel() error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel bill in %s status", b.Status))
	}

	b.Status = BillStatusCancelled
	b.PaymentDate = nil
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillCancelledEvent(b))

	return nil
}

// BillEdit carries the editable fields of a bill
type BillEdit struct {
	Description  *string
	Amount       *decimal.Decimal
	CategoryID   *uuid.UUID
	AccountID    *uuid.UUID
	DueDate      *time.Time
	Notes        *string
	ContactName  *string
	ContactPhone *string
}

// ApplyEdit applies the non-nil fields of the edit and reports whether any
// ledger-relevant field (description, amount, category, account, notes) changed.
func (b *Bill) ApplyEdit(e BillEdit) (ledgerRelevant bool, err error) {
	if e.Amount != nil && e.Amount.LessThanOrEqual(decimal.Zero) {
		return false, shared.NewDomainError("INVALID_AMOUNT", "Bill amount must be positive")
	}
	if e.Description != nil && *e.Description == "" {
		return false, shared.NewDomainError("INVALID_DESCRIPTION", "Bill description cannot be empty")
	}

	if e.Description != nil && *e.Description != b.Description {
		b.Description = *e.Description
		ledgerRelevant = true
	}
	if e.Amount != nil && !e.Amount.Equal(b.Amount) {
		b.Amount = *e.Amount
		ledgerRelevant = true
	}
	if e.CategoryID != nil && *e.CategoryID != b.CategoryID {
		b.CategoryID = *e.CategoryID
		ledgerRelevant = true
	}
	if e.AccountID != nil && *e.AccountID != b.AccountID {
		b.AccountID = *e.AccountID
		ledgerRelevant = true
	}
	if e.Notes != nil && *e.Notes != b.Notes {
		b.Notes = *e.Notes
		ledgerRelevant = true
	}
	if e.DueDate != nil {
		b.DueDate = *e.DueDate
	}
	if e.ContactName != nil {
		b.ContactName = *e.ContactName
	}
	if e.ContactPhone != nil {
		b.ContactPhone = *e.ContactPhone
	}

	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return ledgerRelevant, nil
}

// Successor creates the next occurrence of a recurring bill after settlement.
// The successor copies everything except status and payment date, with the
// due date advanced by one recurrence unit.
func (b *Bill) Successor() (*Bill, error) {
	if !b.IsRecurring {
		return nil, shared.NewDomainError("NOT_RECURRING", "Cannot create successor for non-recurring bill")
	}

	return NewBill(b.OwnerID, BillParams{
		Description:      b.Description,
		Amount:           valueobject.NewMoneyBRL(b.Amount),
		Direction:        b.Direction,
		CategoryID:       b.CategoryID,
		AccountID:        b.AccountID,
		DueDate:          NextDueDate(b.DueDate, b.RecurrenceUnit),
		IsRecurring:      true,
		RecurrenceUnit:   b.RecurrenceUnit,
		InstallmentCount: b.InstallmentCount,
		Notes:            b.Notes,
		ContactName:      b.ContactName,
		ContactPhone:     b.ContactPhone,
	})
}

// Helper methods

// GetAmountMoney returns the amount as Money
func (b *Bill) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(b.Amount)
}

// IsPending returns true if the bill is pending
func (b *Bill) IsPending() bool {
	return b.Status == BillStatusPending
}

// IsOverdue returns true if the bill is overdue
func (b *Bill) IsOverdue() bool {
	return b.Status == BillStatusOverdue
}

// IsPaid returns true if the bill is settled
func (b *Bill) IsPaid() bool {
	return b.Status == BillStatusPaid
}

// IsExpired reports whether the due date lies strictly before the given day
func (b *Bill) IsExpired(asOf time.Time) bool {
	return b.DueDate.Before(truncateToDay(asOf))
}

// DaysOverdue returns the number of days past due (0 if not past due)
func (b *Bill) DaysOverdue(asOf time.Time) int {
	if !b.IsExpired(asOf) {
		return 0
	}
	return int(truncateToDay(asOf).Sub(truncateToDay(b.DueDate)).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
