package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/repo"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/pagination"
)

// Repository persists quotes and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	NextVersion(ctx context.Context, projectID uuid.UUID) (int, error)
	DeleteItems(ctx context.Context, quoteID uuid.UUID) (int64, error)
	CreateItems(ctx context.Context, items []models.QuoteItem) error
	UpdateTotals(ctx context.Context, quote *models.Quote) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus, isApproved bool) error
	HasIncomes(ctx context.Context, quoteID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params) (pagination.Page[models.Quote], error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a quote repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// Create inserts the quote row and its Items.
func (r *repository) Create(ctx context.Context, quote *models.Quote) error {
	return r.DB(ctx).Create(quote).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	query := r.DB(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
	return repo.FindByID[models.Quote](query, id)
}

// FindForUpdate loads the quote row without items under a row lock.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return repo.FindByID[models.Quote](r.Locked(ctx), id)
}

func (r *repository) FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return repo.FindByID[models.Project](r.Locked(ctx), id)
}

// NextVersion is one past the highest version already issued for the project.
func (r *repository) NextVersion(ctx context.Context, projectID uuid.UUID) (int, error) {
	var current int
	err := r.DB(ctx).Model(&models.Quote{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repository) DeleteItems(ctx context.Context, quoteID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("quote_id = ?", quoteID).Delete(&models.QuoteItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.QuoteItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&items).Error
}

func (r *repository) UpdateTotals(ctx context.Context, quote *models.Quote) error {
	return r.DB(ctx).Model(&models.Quote{}).
		Where("id = ?", quote.ID).
		Updates(map[string]any{
			"subtotal":   quote.Subtotal,
			"iva_rate":   quote.IVARate,
			"iva_amount": quote.IVAAmount,
			"isr_rate":   quote.ISRRate,
			"isr_amount": quote.ISRAmount,
			"total":      quote.Total,
		}).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus, isApproved bool) error {
	return r.DB(ctx).Model(&models.Quote{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"is_approved": isApproved,
		}).Error
}

func (r *repository) HasIncomes(ctx context.Context, quoteID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.Income{}, "quote_id = ?", quoteID)
}

// Delete removes the quote and its items.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DB(ctx).Where("quote_id = ?", id).Delete(&models.QuoteItem{}).Error; err != nil {
		return err
	}
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Quote{}).Error
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params) (pagination.Page[models.Quote], error) {
	query := r.DB(ctx).Model(&models.Quote{}).Where("project_id = ?", projectID)
	return pagination.Find(query, params, func(q models.Quote) pagination.Cursor {
		return pagination.Cursor{CreatedAt: q.CreatedAt, ID: q.ID}
	})
}
