package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
	"github.com/angelmondragon/quoteengine-backend/pkg/money"
)

// Service defines operations that record money moving in and out of projects.
type Service interface {
	RecordIncome(ctx context.Context, input IncomeInput) (*models.Income, error)
	RecordVariableExpense(ctx context.Context, input VariableExpenseInput) (*models.VariableExpense, error)
	RecordFixedExpense(ctx context.Context, input FixedExpenseInput) (*models.FixedExpense, error)
	ListIncomes(ctx context.Context, projectID uuid.UUID) ([]models.Income, error)
	ListVariableExpenses(ctx context.Context, projectID uuid.UUID) ([]models.VariableExpense, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IncomeInput captures a payment received for a project.
type IncomeInput struct {
	ProjectID   uuid.UUID  `json:"-"`
	QuoteID     *uuid.UUID `json:"quote_id,omitempty"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description" validate:"required"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
}

// VariableExpenseInput captures project spending. Supplier order payments go through supplierorders.
type VariableExpenseInput struct {
	ProjectID   uuid.UUID  `json:"-"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description" validate:"required"`
	SpentAt     *time.Time `json:"spent_at,omitempty"`
}

// FixedExpenseInput captures overhead booked against a month (YYYY-MM).
type FixedExpenseInput struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description" validate:"required"`
	Period      string  `json:"period" validate:"required"`
}

type service struct {
	repo  Repository
	tx    txRunner
	scale int32
	now   func() time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, tx txRunner, scale int32) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if scale <= 0 {
		scale = money.DefaultScale
	}
	return &service{repo: repo, tx: tx, scale: scale, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) RecordIncome(ctx context.Context, input IncomeInput) (*models.Income, error) {
	amount, description, err := s.normalize(input.Amount, input.Description)
	if err != nil {
		return nil, err
	}

	income := &models.Income{
		ProjectID:   input.ProjectID,
		QuoteID:     input.QuoteID,
		Amount:      amount,
		Description: description,
		ReceivedAt:  s.at(input.ReceivedAt),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureOpen(ctx, repo, input.ProjectID); err != nil {
			return err
		}
		if input.QuoteID != nil {
			ok, err := repo.QuoteBelongsTo(ctx, *input.QuoteID, input.ProjectID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quote")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "quote does not belong to the project").
					WithDetails(map[string]string{"quote_id": "must reference a quote of this project"})
			}
		}
		if err := repo.CreateIncome(ctx, income); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record income")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return income, nil
}

func (s *service) RecordVariableExpense(ctx context.Context, input VariableExpenseInput) (*models.VariableExpense, error) {
	amount, description, err := s.normalize(input.Amount, input.Description)
	if err != nil {
		return nil, err
	}

	expense := &models.VariableExpense{
		ProjectID:   input.ProjectID,
		SupplierID:  input.SupplierID,
		Amount:      amount,
		Description: description,
		SpentAt:     s.at(input.SpentAt),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureOpen(ctx, repo, input.ProjectID); err != nil {
			return err
		}
		if err := repo.CreateVariableExpense(ctx, expense); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record expense")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *service) RecordFixedExpense(ctx context.Context, input FixedExpenseInput) (*models.FixedExpense, error) {
	amount, description, err := s.normalize(input.Amount, input.Description)
	if err != nil {
		return nil, err
	}
	period := strings.TrimSpace(input.Period)
	if _, err := time.Parse("2006-01", period); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period must be formatted as YYYY-MM").
			WithDetails(map[string]string{"period": "must be formatted as YYYY-MM"})
	}

	expense := &models.FixedExpense{Amount: amount, Description: description, Period: period}
	if err := s.repo.CreateFixedExpense(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record fixed expense")
	}
	return expense, nil
}

func (s *service) ListIncomes(ctx context.Context, projectID uuid.UUID) ([]models.Income, error) {
	incomes, err := s.repo.ListIncomes(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list incomes")
	}
	return incomes, nil
}

func (s *service) ListVariableExpenses(ctx context.Context, projectID uuid.UUID) ([]models.VariableExpense, error) {
	expenses, err := s.repo.ListVariableExpenses(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list expenses")
	}
	return expenses, nil
}

// normalize rejects non-positive amounts and rounds to the currency scale.
func (s *service) normalize(amount float64, description string) (float64, string, error) {
	rounded, err := money.NormalizePositive(amount, s.scale)
	if err != nil {
		return 0, "", pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
			WithDetails(map[string]string{"amount": err.Error()})
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "description is required").
			WithDetails(map[string]string{"description": "is required"})
	}
	return rounded, description, nil
}

func (s *service) ensureOpen(ctx context.Context, repo Repository, projectID uuid.UUID) error {
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

func (s *service) at(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return s.now()
	}
	return t.UTC()
}
