package models

import (
	"time"

	"github.com/fintrack/backend/internal/domain/category"
	"github.com/google/uuid"
)

// CategoryModel is the persistence model for the category read model.
// Rows are written by the category collaborator; this engine only reads them.
// OwnerID is nil for system categories shared across all users.
type CategoryModel struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key"`
	OwnerID   *uuid.UUID    `gorm:"type:uuid;index"`
	Name      string        `gorm:"type:varchar(100);not null"`
	Color     string        `gorm:"type:varchar(20)"`
	Type      category.Type `gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category view.
func (m *CategoryModel) ToDomain() *category.Category {
	return &category.Category{
		ID:    m.ID,
		Name:  m.Name,
		Color: m.Color,
		Type:  m.Type,
	}
}
