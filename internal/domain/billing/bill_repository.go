package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillFilter holds filtering options for bill queries
type BillFilter struct {
	Status      *BillStatus
	Direction   *Direction
	IsRecurring *bool
	DueFrom     *time.Time
	DueTo       *time.Time
	Search      string
	Page        int
	PageSize    int
	OrderBy     string
	OrderDir    string
}

// BillRepository defines persistence operations for the Bill aggregate
type BillRepository interface {
	// FindByID finds a bill by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByIDForOwner finds a bill by ID scoped to an owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Bill, error)

	// FindAllForOwner lists bills for an owner with filtering
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter BillFilter) ([]Bill, error)

	// FindExpiredPending returns all PENDING bills whose due date lies
	// strictly before the given day, across all owners. Used by the
	// overdue sweep.
	FindExpiredPending(ctx context.Context, asOf time.Time) ([]Bill, error)

	// Create persists a new bill
	Create(ctx context.Context, bill *Bill) error

	// CreateBatch persists a set of bills atomically (all-or-nothing).
	// Used for upfront variable-amount installment sets.
	CreateBatch(ctx context.Context, bills []*Bill) error

	// Save creates or updates a bill
	Save(ctx context.Context, bill *Bill) error

	// SaveWithLock updates a bill with an optimistic version check.
	// The write only succeeds when the stored version matches the version
	// the aggregate was loaded with; a concurrent writer makes it fail
	// with a concurrency conflict. This is the storage-level guard that
	// turns the settle status transition into a compare-and-swap.
	SaveWithLock(ctx context.Context, bill *Bill) error

	// Delete removes a bill
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForOwner counts bills for an owner with filtering
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter BillFilter) (int64, error)
}
