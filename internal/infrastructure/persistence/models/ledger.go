package models

import (
	"time"

	"github.com/fintrack/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	OwnedAggregateModel
	Name    string          `gorm:"type:varchar(100);not null"`
	Balance decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *ledger.Account {
	account := &ledger.Account{
		Name:    m.Name,
		Balance: m.Balance,
	}
	m.PopulateOwnedAggregateRoot(&account.OwnedAggregateRoot)
	return account
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainOwnedAggregateRoot(a.OwnedAggregateRoot)
	m.Name = a.Name
	m.Balance = a.Balance
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// TransactionModel is the persistence model for ledger entries.
type TransactionModel struct {
	OwnedAggregateModel
	Description  string                   `gorm:"type:varchar(200);not null"`
	Amount       decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Kind         ledger.TransactionKind   `gorm:"type:varchar(20);not null;index"`
	CategoryID   uuid.UUID                `gorm:"type:uuid;not null;index"`
	AccountID    uuid.UUID                `gorm:"type:uuid;not null;index"`
	Date         time.Time                `gorm:"not null;index"`
	Status       ledger.TransactionStatus `gorm:"type:varchar(20);not null;default:'COMPLETED';index"`
	Notes        string                   `gorm:"type:text"`
	SourceBillID *uuid.UUID               `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	tx := &ledger.Transaction{
		Description:  m.Description,
		Amount:       m.Amount,
		Kind:         m.Kind,
		CategoryID:   m.CategoryID,
		AccountID:    m.AccountID,
		Date:         m.Date,
		Status:       m.Status,
		Notes:        m.Notes,
		SourceBillID: m.SourceBillID,
	}
	m.PopulateOwnedAggregateRoot(&tx.OwnedAggregateRoot)
	return tx
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainOwnedAggregateRoot(t.OwnedAggregateRoot)
	m.Description = t.Description
	m.Amount = t.Amount
	m.Kind = t.Kind
	m.CategoryID = t.CategoryID
	m.AccountID = t.AccountID
	m.Date = t.Date
	m.Status = t.Status
	m.Notes = t.Notes
	m.SourceBillID = t.SourceBillID
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
