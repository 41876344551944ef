package supplierorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/repo"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// Repository persists supplier orders and reads the expenses paid against them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.SupplierOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.SupplierOrder, error)
	Payments(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.VariableExpense, error)
	CreatePayment(ctx context.Context, expense *models.VariableExpense) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a supplier order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.SupplierOrder) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	return repo.FindByID[models.SupplierOrder](r.DB(ctx).Preload("Items"), id)
}

// FindForUpdate locks the order row and loads its items.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	order, err := repo.FindByID[models.SupplierOrder](r.Locked(ctx), id)
	if err != nil || order == nil {
		return nil, err
	}
	if err := r.DB(ctx).Where("supplier_order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return repo.FindByID[models.Project](r.Locked(ctx), id)
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.SupplierOrder, error) {
	var orders []models.SupplierOrder
	err := r.DB(ctx).
		Preload("Items").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// Payments groups the variable expenses linked to each order id.
func (r *repository) Payments(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.VariableExpense, error) {
	out := make(map[uuid.UUID][]models.VariableExpense, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []models.VariableExpense
	if err := r.DB(ctx).
		Where("supplier_order_id IN ?", orderIDs).
		Order("spent_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[*row.SupplierOrderID] = append(out[*row.SupplierOrderID], row)
	}
	return out, nil
}

func (r *repository) CreatePayment(ctx context.Context, expense *models.VariableExpense) error {
	return r.DB(ctx).Create(expense).Error
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	return r.DB(ctx).Model(&models.SupplierOrder{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}
