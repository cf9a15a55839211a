// Package category holds the read model for expense/income categories.
// Categories are managed by an external collaborator; the engine only reads
// them to classify bills and render settlement receipts.
package category

import (
	"context"

	"github.com/google/uuid"
)

// Type distinguishes income and expense categories
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// IsValid checks if the type is valid
func (t Type) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category is a read-only view of a system or user category
type Category struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Type  Type      `json:"type"`
}

// Resolver resolves categories from the external category collaborator.
// Implementations merge system and user categories; the engine never
// mutates them.
type Resolver interface {
	// Resolve returns the category with the given ID, or a not-found error
	Resolve(ctx context.Context, id uuid.UUID) (*Category, error)

	// ListByType returns the merged system+user categories of one type
	// visible to an owner
	ListByType(ctx context.Context, ownerID uuid.UUID, t Type) ([]Category, error)
}
