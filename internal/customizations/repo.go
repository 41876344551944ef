// Package customizations stores tiered customization services and prices them.
package customizations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/repo"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
)

// Repository persists customization services with their ranges.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, service *models.CustomizationService) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CustomizationService, error)
	FindByCode(ctx context.Context, code string) (*models.CustomizationService, error)
	List(ctx context.Context) ([]models.CustomizationService, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a customization repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// Create inserts the service and its ranges in one statement group.
func (r *repository) Create(ctx context.Context, service *models.CustomizationService) error {
	return r.DB(ctx).Create(service).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CustomizationService, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.CustomizationService, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *repository) List(ctx context.Context) ([]models.CustomizationService, error) {
	var services []models.CustomizationService
	err := r.DB(ctx).
		Preload("Ranges", orderRanges).
		Order("code ASC").
		Find(&services).Error
	return services, err
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.CustomizationService, error) {
	return repo.First[models.CustomizationService](r.DB(ctx).Preload("Ranges", orderRanges).Where(query, arg))
}

func orderRanges(db *gorm.DB) *gorm.DB {
	return db.Order("min_qty ASC")
}
