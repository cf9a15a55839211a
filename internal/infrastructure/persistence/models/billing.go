package models

import (
	"time"

	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for the Bill aggregate root.
type BillModel struct {
	OwnedAggregateModel
	Description      string                 `gorm:"type:varchar(200);not null"`
	Amount           decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Direction        billing.Direction      `gorm:"type:varchar(20);not null;index"`
	CategoryID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	AccountID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	DueDate          time.Time              `gorm:"not null;index"`
	Status           billing.BillStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentDate      *time.Time             `gorm:"index"`
	IsRecurring      bool                   `gorm:"not null;default:false"`
	RecurrenceUnit   billing.RecurrenceUnit `gorm:"type:varchar(20)"`
	InstallmentCount int                    `gorm:"not null;default:0"`
	Notes            string                 `gorm:"type:text"`
	ContactName      string                 `gorm:"type:varchar(200)"`
	ContactPhone     string                 `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill entity.
func (m *BillModel) ToDomain() *billing.Bill {
	bill := &billing.Bill{
		Description:      m.Description,
		Amount:           m.Amount,
		Direction:        m.Direction,
		CategoryID:       m.CategoryID,
		AccountID:        m.AccountID,
		DueDate:          m.DueDate,
		Status:           m.Status,
		PaymentDate:      m.PaymentDate,
		IsRecurring:      m.IsRecurring,
		RecurrenceUnit:   m.RecurrenceUnit,
		InstallmentCount: m.InstallmentCount,
		Notes:            m.Notes,
		ContactName:      m.ContactName,
		ContactPhone:     m.ContactPhone,
	}
	m.PopulateOwnedAggregateRoot(&bill.OwnedAggregateRoot)
	return bill
}

// FromDomain populates the persistence model from a domain Bill entity.
func (m *BillModel) FromDomain(b *billing.Bill) {
	m.FromDomainOwnedAggregateRoot(b.OwnedAggregateRoot)
	m.Description = b.Description
	m.Amount = b.Amount
	m.Direction = b.Direction
	m.CategoryID = b.CategoryID
	m.AccountID = b.AccountID
	m.DueDate = b.DueDate
	m.Status = b.Status
	m.PaymentDate = b.PaymentDate
	m.IsRecurring = b.IsRecurring
	m.RecurrenceUnit = b.RecurrenceUnit
	m.InstallmentCount = b.InstallmentCount
	m.Notes = b.Notes
	m.ContactName = b.ContactName
	m.ContactPhone = b.ContactPhone
}

// BillModelFromDomain creates a new persistence model from a domain Bill.
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}
