// Package supplierorders records purchases placed with suppliers and the payments made against them.
package supplierorders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/catalog"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
	"github.com/angelmondragon/quoteengine-backend/pkg/money"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ItemInput is one purchased line.
type ItemInput struct {
	Code     string  `json:"code" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
}

// CreateInput places an order with a supplier for a project.
type CreateInput struct {
	ProjectID  uuid.UUID   `json:"-"`
	SupplierID uuid.UUID   `json:"supplier_id" validate:"required"`
	Notes      *string     `json:"notes,omitempty"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// PaymentInput records money paid to the supplier against an order.
type PaymentInput struct {
	Amount      float64    `json:"amount" validate:"gt=0"`
	Description string     `json:"description"`
	SpentAt     *time.Time `json:"spent_at,omitempty"`
}

// OrderBalance is an order with its derived balance.
type OrderBalance struct {
	Order   models.SupplierOrder `json:"order"`
	Balance Balance              `json:"balance"`
}

// PaymentResult is the recorded expense and the order state after it.
type PaymentResult struct {
	Expense models.VariableExpense `json:"expense"`
	Order   OrderBalance           `json:"order"`
}

// Service manages supplier orders.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderBalance, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderBalance, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]OrderBalance, error)
	RecordPayment(ctx context.Context, orderID uuid.UUID, input PaymentInput) (*PaymentResult, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	tx      txRunner
	outbox  outbox.Emitter
	scale   int32
}

// NewService wires the supplier order service. scale is the currency precision payments are rounded to.
func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner, emitter outbox.Emitter, scale int32) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier order repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if scale <= 0 {
		scale = money.DefaultScale
	}
	return &service{repo: repo, catalog: catalogRepo, tx: tx, outbox: emitter, scale: scale}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderBalance, error) {
	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	var result *OrderBalance
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.ensureProjectOpen(ctx, repo, input.ProjectID); err != nil {
			return err
		}
		supplier, err := s.catalog.WithTx(tx).FindSupplier(ctx, input.SupplierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier")
		}
		if supplier == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}

		order := &models.SupplierOrder{
			ProjectID:     input.ProjectID,
			SupplierID:    supplier.ID,
			PaymentStatus: enums.PaymentStatusPending,
			Notes:         input.Notes,
			Items:         items,
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create supplier order")
		}
		balance := ResolveBalance(order.Items, nil)
		result = &OrderBalance{Order: *order, Balance: balance}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSupplierOrderCreated,
			AggregateType: enums.AggregateSupplierOrder,
			AggregateID:   order.ID,
			Data: payloads.SupplierOrderCreatedEvent{
				OrderID:    order.ID,
				ProjectID:  order.ProjectID,
				SupplierID: order.SupplierID,
				OrderTotal: balance.OrderTotal,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderBalance, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier order not found")
	}
	payments, err := s.repo.Payments(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier order payments")
	}
	return &OrderBalance{Order: *order, Balance: ResolveBalance(order.Items, payments[order.ID])}, nil
}

func (s *service) ListByProject(ctx context.Context, projectID uuid.UUID) ([]OrderBalance, error) {
	orders, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list supplier orders")
	}
	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	payments, err := s.repo.Payments(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier order payments")
	}
	out := make([]OrderBalance, 0, len(orders))
	for _, order := range orders {
		out = append(out, OrderBalance{Order: order, Balance: ResolveBalance(order.Items, payments[order.ID])})
	}
	return out, nil
}

// RecordPayment books a variable expense against the order and moves its payment status.
func (s *service) RecordPayment(ctx context.Context, orderID uuid.UUID, input PaymentInput) (*PaymentResult, error) {
	amount, err := money.NormalizePositive(input.Amount, s.scale)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
			WithDetails(map[string]string{"amount": err.Error()})
	}
	spentAt := time.Now().UTC()
	if input.SpentAt != nil {
		spentAt = input.SpentAt.UTC()
	}

	var result *PaymentResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier order not found")
		}
		if err := s.ensureProjectOpen(ctx, repo, order.ProjectID); err != nil {
			return err
		}

		description := strings.TrimSpace(input.Description)
		if description == "" {
			description = fmt.Sprintf("Payment for supplier order %s", order.ID)
		}
		expense := models.VariableExpense{
			ProjectID:       order.ProjectID,
			SupplierOrderID: &order.ID,
			SupplierID:      &order.SupplierID,
			Amount:          amount,
			Description:     description,
			SpentAt:         spentAt,
		}
		if err := repo.CreatePayment(ctx, &expense); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment")
		}

		payments, err := repo.Payments(ctx, []uuid.UUID{order.ID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier order payments")
		}
		balance := ResolveBalance(order.Items, payments[order.ID])
		order.PaymentStatus = PaymentStatusFor(balance)
		if err := repo.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
		}
		result = &PaymentResult{Expense: expense, Order: OrderBalance{Order: *order, Balance: balance}}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSupplierOrderPaymentRecorded,
			AggregateType: enums.AggregateSupplierOrder,
			AggregateID:   order.ID,
			Data: payloads.SupplierOrderPaymentRecordedEvent{
				OrderID:       order.ID,
				ProjectID:     order.ProjectID,
				ExpenseID:     expense.ID,
				Amount:        amount,
				Paid:          balance.Paid,
				Balance:       balance.Balance,
				PaymentStatus: order.PaymentStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ensureProjectOpen(ctx context.Context, repo Repository, projectID uuid.UUID) error {
	project, err := repo.FindProject(ctx, projectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
	}
	if project == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	if project.IsFinanciallyClosed() {
		return pkgerrors.Guard(enums.GuardReasonFinanciallyClosed.String(), "project is financially closed")
	}
	return nil
}

func buildItems(inputs []ItemInput) ([]models.SupplierOrderItem, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	items := make([]models.SupplierOrderItem, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("items[%d]", i)
		code := strings.TrimSpace(in.Code)
		name := strings.TrimSpace(in.Name)
		switch {
		case code == "":
			return nil, fieldError(field+".code", "is required")
		case name == "":
			return nil, fieldError(field+".name", "is required")
		case !(in.Quantity > 0) || math.IsInf(in.Quantity, 0):
			return nil, fieldError(field+".quantity", "must be greater than zero")
		case in.UnitCost < 0 || math.IsNaN(in.UnitCost) || math.IsInf(in.UnitCost, 0):
			return nil, fieldError(field+".unit_cost", "must not be negative")
		}
		items = append(items, models.SupplierOrderItem{
			Code:     code,
			Name:     name,
			Quantity: in.Quantity,
			UnitCost: in.UnitCost,
		})
	}
	return items, nil
}

func fieldError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, field+" "+msg).
		WithDetails(map[string]string{field: msg})
}
