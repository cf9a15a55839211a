package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for the Account aggregate
type AccountRepository interface {
	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByIDForOwner finds an account by ID scoped to an owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Account, error)

	// FindAllForOwner lists all accounts for an owner
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error

	// SaveWithLock updates an account with an optimistic version check;
	// the balance read-modify-write is the main contention point of
	// settlement and must not lose updates.
	SaveWithLock(ctx context.Context, account *Account) error
}

// TransactionMatch describes the duplicate-detection probe: completed
// entries matching description, amount and kind created since a point in time.
type TransactionMatch struct {
	OwnerID     uuid.UUID
	Description string
	Amount      decimal.Decimal
	Kind        TransactionKind
	Since       time.Time
}

// TransactionRepository defines persistence operations for ledger entries
type TransactionRepository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindBySourceBill returns all entries correlated to a bill,
	// newest first
	FindBySourceBill(ctx context.Context, billID uuid.UUID) ([]Transaction, error)

	// FindLatestBySourceBill returns the most recently created entry
	// correlated to a bill, or a not-found error
	FindLatestBySourceBill(ctx context.Context, billID uuid.UUID) (*Transaction, error)

	// FindRecentMatching returns completed entries matching the probe,
	// newest first. Used by the duplicate-settlement heuristic.
	FindRecentMatching(ctx context.Context, match TransactionMatch) ([]Transaction, error)

	// Create persists a new ledger entry
	Create(ctx context.Context, tx *Transaction) error

	// Save updates an existing entry (edit-sync rewrite only)
	Save(ctx context.Context, tx *Transaction) error

	// Delete removes a single entry
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteBySourceBill removes all entries correlated to a bill and
	// returns how many were removed
	DeleteBySourceBill(ctx context.Context, billID uuid.UUID) (int64, error)
}
