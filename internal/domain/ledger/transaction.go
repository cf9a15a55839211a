package ledger

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind tells whether a ledger entry records incoming or outgoing money
type TransactionKind string

const (
	KindIncome  TransactionKind = "INCOME"
	KindExpense TransactionKind = "EXPENSE"
)

// IsValid checks if the kind is valid
func (k TransactionKind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

// TransactionStatus represents the status of a ledger entry.
// Engine-created entries are always COMPLETED; PENDING exists only for
// entries restored by external collaborators.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusPending   TransactionStatus = "PENDING"
)

// Transaction is an immutable ledger entry recording money movement.
// Entries are created exclusively by settlement and carry an explicit
// reference to the bill that produced them.
type Transaction struct {
	shared.OwnedAggregateRoot
	Description  string            `json:"description"`
	Amount       decimal.Decimal   `json:"amount"`
	Kind         TransactionKind   `json:"kind"`
	CategoryID   uuid.UUID         `json:"category_id"`
	AccountID    uuid.UUID         `json:"account_id"`
	Date         time.Time         `json:"date"`
	Status       TransactionStatus `json:"status"`
	Notes        string            `json:"notes"`
	SourceBillID *uuid.UUID        `json:"source_bill_id"`
}

// NewTransaction creates a new completed ledger entry
func NewTransaction(
	ownerID uuid.UUID,
	description string,
	amount decimal.Decimal,
	kind TransactionKind,
	categoryID, accountID uuid.UUID,
	date time.Time,
	notes string,
	sourceBillID *uuid.UUID,
) (*Transaction, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Transaction description cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Transaction kind is not valid")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Transaction account ID cannot be empty")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Transaction date is required")
	}

	return &Transaction{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Description:        description,
		Amount:             amount,
		Kind:               kind,
		CategoryID:         categoryID,
		AccountID:          accountID,
		Date:               date,
		Status:             TransactionStatusCompleted,
		Notes:              notes,
		SourceBillID:       sourceBillID,
	}, nil
}

// Rewrite aligns the entry with an edited bill. This is the only sanctioned
// mutation of a ledger entry; it exists so that editing an already-settled
// bill keeps the ledger consistent.
func (t *Transaction) Rewrite(
	description string,
	amount decimal.Decimal,
	categoryID, accountID uuid.UUID,
	date time.Time,
	notes string,
) error {
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Transaction description cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	t.Description = description
	t.Amount = amount
	t.CategoryID = categoryID
	t.AccountID = accountID
	t.Date = date
	t.Notes = notes
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// IsCompleted returns true if the entry is completed
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}
