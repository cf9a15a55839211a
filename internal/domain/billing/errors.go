package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlreadySettledError is returned when a settlement targets a bill that was
// already paid, typically by another client between read and write.
type AlreadySettledError struct {
	BillID      uuid.UUID
	Description string
	PaymentDate *time.Time
}

// Error implements the error interface
func (e *AlreadySettledError) Error() string {
	if e.PaymentDate != nil {
		return fmt.Sprintf("bill %q was already settled on %s", e.Description, e.PaymentDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("bill %q was already settled", e.Description)
}

// Code returns the machine-readable error code
func (e *AlreadySettledError) Code() string {
	return "BILL_ALREADY_SETTLED"
}

// ErrAlreadySettled builds an AlreadySettledError from a bill
func ErrAlreadySettled(b *Bill) *AlreadySettledError {
	return &AlreadySettledError{
		BillID:      b.ID,
		Description: b.Description,
		PaymentDate: b.PaymentDate,
	}
}

// DuplicateSettlementError is a recoverable warning: a completed transaction
// matching the bill's description, amount and kind was created inside the
// duplicate-detection window. The caller may confirm and retry with an
// explicit override.
type DuplicateSettlementError struct {
	BillID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	MatchedAt   time.Time
	Window      time.Duration
}

// Error implements the error interface
func (e *DuplicateSettlementError) Error() string {
	return fmt.Sprintf("a matching transaction for %q (%s) was recorded %s ago; confirm to settle anyway",
		e.Description, e.Amount.StringFixed(2), time.Since(e.MatchedAt).Round(time.Second))
}

// Code returns the machine-readable error code
func (e *DuplicateSettlementError) Code() string {
	return "DUPLICATE_SETTLEMENT"
}

// PartialReconciliationError reports that a settlement write failed after an
// earlier write succeeded. Under the transactional scope the earlier writes
// are rolled back; the step name tells the caller what to re-check after a
// re-sync.
type PartialReconciliationError struct {
	BillID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	FailedStep  string
	Err         error
}

// Error implements the error interface
func (e *PartialReconciliationError) Error() string {
	return fmt.Sprintf("settlement of %q (%s) failed at step %s: %v; re-sync and verify account balance",
		e.Description, e.Amount.StringFixed(2), e.FailedStep, e.Err)
}

// Unwrap returns the underlying error
func (e *PartialReconciliationError) Unwrap() error {
	return e.Err
}

// Code returns the machine-readable error code
func (e *PartialReconciliationError) Code() string {
	return "PARTIAL_RECONCILIATION"
}
