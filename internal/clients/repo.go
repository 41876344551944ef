// Package clients resolves the customer a quote or project belongs to.
package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/repo"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
)

// Repository persists clients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindByName(ctx context.Context, name string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a client repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return repo.FindByID[models.Client](r.DB(ctx), id)
}

// FindByName matches case-insensitively after trimming.
func (r *repository) FindByName(ctx context.Context, name string) (*models.Client, error) {
	query := r.DB(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("created_at ASC")
	return repo.First[models.Client](query)
}

func (r *repository) Create(ctx context.Context, client *models.Client) error {
	return r.DB(ctx).Create(client).Error
}
