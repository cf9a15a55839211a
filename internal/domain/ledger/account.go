package ledger

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a balance-holding bucket. Its balance is mutated only through
// Credit and Debit, both invoked by settlement; a negative balance is legal.
type Account struct {
	shared.OwnedAggregateRoot
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// NewAccount creates a new account with the given opening balance
func NewAccount(ownerID uuid.UUID, name string, opening decimal.Decimal) (*Account, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot exceed 100 characters")
	}

	return &Account{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		Balance:            opening,
	}, nil
}

// Credit increases the balance by the given positive amount
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Debit decreases the balance by the given positive amount. The balance is
// allowed to go negative; sufficiency is an advisory check made by callers.
func (a *Account) Debit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}

	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// HasSufficientBalance reports whether the balance covers the given amount
func (a *Account) HasSufficientBalance(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// GetBalanceMoney returns the balance as Money
func (a *Account) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(a.Balance)
}
