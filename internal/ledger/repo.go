package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/repo"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
)

// Repository manages persistence for ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	QuoteBelongsTo(ctx context.Context, quoteID, projectID uuid.UUID) (bool, error)
	CreateIncome(ctx context.Context, income *models.Income) error
	CreateVariableExpense(ctx context.Context, expense *models.VariableExpense) error
	CreateFixedExpense(ctx context.Context, expense *models.FixedExpense) error
	ListIncomes(ctx context.Context, projectID uuid.UUID) ([]models.Income, error)
	ListVariableExpenses(ctx context.Context, projectID uuid.UUID) ([]models.VariableExpense, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// FindProject reads the project under a row lock so a concurrent close cannot slip in.
func (r *repository) FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return repo.FindByID[models.Project](r.Locked(ctx), id)
}

func (r *repository) QuoteBelongsTo(ctx context.Context, quoteID, projectID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.Quote{}, "id = ? AND project_id = ?", quoteID, projectID)
}

func (r *repository) CreateIncome(ctx context.Context, income *models.Income) error {
	return r.DB(ctx).Create(income).Error
}

func (r *repository) CreateVariableExpense(ctx context.Context, expense *models.VariableExpense) error {
	return r.DB(ctx).Create(expense).Error
}

func (r *repository) CreateFixedExpense(ctx context.Context, expense *models.FixedExpense) error {
	return r.DB(ctx).Create(expense).Error
}

func (r *repository) ListIncomes(ctx context.Context, projectID uuid.UUID) ([]models.Income, error) {
	var incomes []models.Income
	if err := r.DB(ctx).
		Where("project_id = ?", projectID).
		Order("received_at ASC").
		Find(&incomes).Error; err != nil {
		return nil, err
	}
	return incomes, nil
}

func (r *repository) ListVariableExpenses(ctx context.Context, projectID uuid.UUID) ([]models.VariableExpense, error) {
	var expenses []models.VariableExpense
	if err := r.DB(ctx).
		Where("project_id = ?", projectID).
		Order("spent_at ASC").
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}
