package persistence

import (
	"context"
	"errors"

	"github.com/fintrack/backend/internal/domain/category"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryResolver implements the category Resolver against the table
// maintained by the category collaborator. Read-only: this engine never
// writes category rows.
type GormCategoryResolver struct {
	db *gorm.DB
}

// NewGormCategoryResolver creates a new GormCategoryResolver
func NewGormCategoryResolver(db *gorm.DB) *GormCategoryResolver {
	return &GormCategoryResolver{db: db}
}

// Resolve returns the category with the given ID
func (r *GormCategoryResolver) Resolve(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByType returns the merged system and user categories of one type
// visible to an owner. System categories have a null owner.
func (r *GormCategoryResolver) ListByType(ctx context.Context, ownerID uuid.UUID, t category.Type) ([]category.Category, error) {
	var categoryModels []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("type = ? AND (owner_id IS NULL OR owner_id = ?)", t, ownerID).
		Order("name ASC").
		Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]category.Category, len(categoryModels))
	for i, model := range categoryModels {
		categories[i] = *model.ToDomain()
	}
	return categories, nil
}

// Ensure GormCategoryResolver implements Resolver
var _ category.Resolver = (*GormCategoryResolver)(nil)
