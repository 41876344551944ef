package projects

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/repo"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/pagination"
)

// Repository persists projects and answers the guard queries over their financial graph.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[models.Project], error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProjectStatus, cancelledAt *time.Time) error
	MarkClosed(ctx context.Context, id uuid.UUID, closedAt time.Time) error

	CountApprovedQuotes(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountSupplierOrders(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountPendingOrders(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountIncomes(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountVariableExpenses(ctx context.Context, projectID uuid.UUID) (int64, error)
	Totals(ctx context.Context, projectID uuid.UUID) (Totals, error)

	LiquidateOrders(ctx context.Context, projectID uuid.UUID) (int64, error)
	DeleteQuotes(ctx context.Context, projectID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ForceDelete(ctx context.Context, id uuid.UUID) (DeletionCounts, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a project repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, project *models.Project) error {
	return r.DB(ctx).Create(project).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return repo.FindByID[models.Project](r.DB(ctx), id)
}

// FindForUpdate re-reads the project under a row lock so guards and writes see the same state.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return repo.FindByID[models.Project](r.Locked(ctx), id)
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[models.Project], error) {
	query := r.DB(ctx).Model(&models.Project{})
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.FinancialStatus != nil {
		query = query.Where("financial_status = ?", *filters.FinancialStatus)
	}
	return pagination.Find(query, params, func(p models.Project) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProjectStatus, cancelledAt *time.Time) error {
	updates := map[string]any{"status": status}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}
	return r.DB(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error
}

// MarkClosed flips both status axes in one statement.
func (r *repository) MarkClosed(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	return r.DB(ctx).Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":           enums.ProjectStatusClosed,
			"financial_status": enums.FinancialStatusClosed,
			"closed_at":        closedAt,
		}).Error
}

func (r *repository) CountApprovedQuotes(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.Count(ctx, &models.Quote{}, "project_id = ? AND is_approved = ?", projectID, true)
}

func (r *repository) CountSupplierOrders(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.Count(ctx, &models.SupplierOrder{}, "project_id = ?", projectID)
}

func (r *repository) CountPendingOrders(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.Count(ctx, &models.SupplierOrder{}, "project_id = ? AND payment_status <> ?", projectID, enums.PaymentStatusPaid)
}

func (r *repository) CountIncomes(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.Count(ctx, &models.Income{}, "project_id = ?", projectID)
}

func (r *repository) CountVariableExpenses(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.Count(ctx, &models.VariableExpense{}, "project_id = ?", projectID)
}

func (r *repository) Totals(ctx context.Context, projectID uuid.UUID) (Totals, error) {
	var out Totals
	sums := []struct {
		dest   *float64
		model  any
		column string
		where  string
		args   []any
	}{
		{&out.QuotedTotal, &models.Quote{}, "total", "project_id = ? AND is_approved = ?", []any{projectID, true}},
		{&out.Incomes, &models.Income{}, "amount", "project_id = ?", []any{projectID}},
		{&out.VariableExpenses, &models.VariableExpense{}, "amount", "project_id = ?", []any{projectID}},
	}
	for _, sum := range sums {
		if err := r.DB(ctx).Model(sum.model).
			Where(sum.where, sum.args...).
			Select("COALESCE(SUM(" + sum.column + "), 0)").
			Scan(sum.dest).Error; err != nil {
			return Totals{}, err
		}
	}
	return out, nil
}

// LiquidateOrders marks every unpaid order of the project as PAID and returns how many moved.
func (r *repository) LiquidateOrders(ctx context.Context, projectID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Model(&models.SupplierOrder{}).
		Where("project_id = ? AND payment_status <> ?", projectID, enums.PaymentStatusPaid).
		Update("payment_status", enums.PaymentStatusPaid)
	return res.RowsAffected, res.Error
}

// DeleteQuotes removes the project's quotes and their items.
func (r *repository) DeleteQuotes(ctx context.Context, projectID uuid.UUID) (int64, error) {
	db := r.DB(ctx)
	quoteIDs := db.Model(&models.Quote{}).Select("id").Where("project_id = ?", projectID)
	if err := db.Where("quote_id IN (?)", quoteIDs).Delete(&models.QuoteItem{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("project_id = ?", projectID).Delete(&models.Quote{})
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Project{}).Error
}

// ForceDelete removes the whole financial graph of a project, children first.
func (r *repository) ForceDelete(ctx context.Context, id uuid.UUID) (DeletionCounts, error) {
	db := r.DB(ctx)
	orderIDs := db.Model(&models.SupplierOrder{}).Select("id").Where("project_id = ?", id)
	quoteIDs := db.Model(&models.Quote{}).Select("id").Where("project_id = ?", id)

	var counts DeletionCounts
	steps := []struct {
		dest  *int64
		model any
		where string
		arg   any
	}{
		{&counts.VariableExpenses, &models.VariableExpense{}, "project_id = ?", id},
		{&counts.Incomes, &models.Income{}, "project_id = ?", id},
		{&counts.SupplierOrderItems, &models.SupplierOrderItem{}, "supplier_order_id IN (?)", orderIDs},
		{&counts.SupplierOrders, &models.SupplierOrder{}, "project_id = ?", id},
		{&counts.QuoteItems, &models.QuoteItem{}, "quote_id IN (?)", quoteIDs},
		{&counts.Quotes, &models.Quote{}, "project_id = ?", id},
		{&counts.Projects, &models.Project{}, "id = ?", id},
	}
	for _, step := range steps {
		res := db.Where(step.where, step.arg).Delete(step.model)
		if res.Error != nil {
			return DeletionCounts{}, res.Error
		}
		*step.dest = res.RowsAffected
	}
	return counts, nil
}
