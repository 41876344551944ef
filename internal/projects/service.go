// Package projects runs the project lifecycle: status transitions, financial close and guarded deletion.
package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/clients"
	"github.com/angelmondragon/quoteengine-backend/internal/supplierorders"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/quoteengine-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderLister interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]supplierorders.OrderBalance, error)
}

type engineRecorder interface {
	GuardRejected(reason string)
	Transitioned(from, to string)
	ForceDeleted()
}

// Service is the project lifecycle controller and deletion guard.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[models.Project], error)
	Summary(ctx context.Context, id uuid.UUID) (*Summary, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target enums.ProjectStatus) (*models.Project, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Project, error)
	CloseEligibility(ctx context.Context, id uuid.UUID) (*Eligibility, error)
	Close(ctx context.Context, id uuid.UUID) (*models.Project, error)
	CheckDeletion(ctx context.Context, id uuid.UUID) (*DeletionCheck, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ForceDelete(ctx context.Context, id uuid.UUID, actor outbox.ActorRef) (DeletionCounts, error)
}

// Deps groups the collaborators of the project service.
type Deps struct {
	Repo    Repository
	Clients clients.Repository
	Orders  orderLister
	Tx      txRunner
	Outbox  outbox.Emitter
	Metrics engineRecorder
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    Repository
	clients clients.Repository
	orders  orderLister
	tx      txRunner
	outbox  outbox.Emitter
	metrics engineRecorder
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the project lifecycle controller.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("project repository required")
	case deps.Clients == nil:
		return nil, fmt.Errorf("client repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("supplier order lister required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case deps.Metrics == nil:
		return nil, fmt.Errorf("engine metrics required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    deps.Repo,
		clients: deps.Clients,
		orders:  deps.Orders,
		tx:      deps.Tx,
		outbox:  deps.Outbox,
		metrics: deps.Metrics,
		logg:    deps.Logger,
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required").
			WithDetails(map[string]string{"name": "is required"})
	}

	var project *models.Project
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		client, err := clients.Resolve(ctx, s.clients.WithTx(tx), input.Client)
		if err != nil {
			return err
		}
		project = &models.Project{
			ClientID:        client.ID,
			UserID:          input.UserID,
			Name:            name,
			Description:     input.Description,
			Status:          enums.ProjectStatusDraft,
			FinancialStatus: enums.FinancialStatusOpen,
		}
		if err := s.repo.WithTx(tx).Create(ctx, project); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create project")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProjectCreated,
			AggregateType: enums.AggregateProject,
			AggregateID:   project.ID,
			Data: payloads.ProjectCreatedEvent{
				ProjectID: project.ID,
				ClientID:  project.ClientID,
				Name:      project.Name,
				Status:    project.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.load(ctx, s.repo.FindByID, id)
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[models.Project], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Project]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[models.Project]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list projects")
	}
	return page, nil
}

// Summary recomputes the project's money position from the ledger and supplier orders.
func (s *service) Summary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	project, err := s.load(ctx, s.repo.FindByID, id)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum project ledger")
	}
	orders, err := s.orders.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ProjectID:        project.ID,
		Status:           project.Status,
		FinancialStatus:  project.FinancialStatus,
		QuotedTotal:      totals.QuotedTotal,
		Incomes:          totals.Incomes,
		VariableExpenses: totals.VariableExpenses,
		Profit:           totals.Incomes - totals.VariableExpenses,
	}
	for _, order := range orders {
		summary.SupplierOrdersTotal += order.Balance.OrderTotal
		summary.SupplierOrdersPaid += order.Balance.Paid
		if order.Balance.Pending {
			summary.Outstanding += order.Balance.Balance
			summary.PendingOrders++
		}
	}
	return summary, nil
}

// UpdateStatus moves the operational status. Closing is delegated to Close so orders are liquidated.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.ProjectStatus) (*models.Project, error) {
	if target == enums.ProjectStatusClosed {
		return s.Close(ctx, id)
	}

	var (
		project  *models.Project
		previous enums.ProjectStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.load(ctx, repo.FindForUpdate, id)
		if err != nil {
			return err
		}
		if err := checkTransition(current, target); err != nil {
			return err
		}
		if target == enums.ProjectStatusCancelled {
			reason, err := firstViolation(ctx, id, cancelGuard(repo))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check cancel guard")
			}
			if reason != "" {
				return guardError(reason)
			}
		}

		var cancelledAt *time.Time
		if target == enums.ProjectStatusCancelled {
			at := s.now()
			cancelledAt = &at
			current.CancelledAt = cancelledAt
		}
		if err := repo.UpdateStatus(ctx, id, target, cancelledAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update project status")
		}
		previous = current.Status
		current.Status = target
		project = current

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProjectStatusChanged,
			AggregateType: enums.AggregateProject,
			AggregateID:   id,
			Data: payloads.ProjectStatusChangedEvent{
				ProjectID:      id,
				PreviousStatus: previous,
				Status:         target,
			},
		})
	})
	if err != nil {
		return nil, s.observe(ctx, id, err)
	}
	s.metrics.Transitioned(previous.String(), target.String())
	return project, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.UpdateStatus(ctx, id, enums.ProjectStatusCancelled)
}

func (s *service) CloseEligibility(ctx context.Context, id uuid.UUID) (*Eligibility, error) {
	project, err := s.load(ctx, s.repo.FindByID, id)
	if err != nil {
		return nil, err
	}
	if project.IsFinanciallyClosed() {
		return &Eligibility{Reason: enums.GuardReasonFinanciallyClosed}, nil
	}
	pending, err := s.repo.CountPendingOrders(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count pending orders")
	}
	if pending > 0 {
		return &Eligibility{PendingOrders: pending, Reason: enums.GuardReasonPendingOrders}, nil
	}
	return &Eligibility{Eligible: project.Status.CanTransitionTo(enums.ProjectStatusClosed)}, nil
}

// Close liquidates every unpaid supplier order and flips both status axes in one transaction.
func (s *service) Close(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var (
		project  *models.Project
		previous enums.ProjectStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.load(ctx, repo.FindForUpdate, id)
		if err != nil {
			return err
		}
		if err := checkTransition(current, enums.ProjectStatusClosed); err != nil {
			return err
		}

		liquidated, err := repo.LiquidateOrders(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "liquidate supplier orders")
		}
		closedAt := s.now()
		if err := repo.MarkClosed(ctx, id, closedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close project")
		}
		totals, err := repo.Totals(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum project ledger")
		}

		previous = current.Status
		current.Status = enums.ProjectStatusClosed
		current.FinancialStatus = enums.FinancialStatusClosed
		current.ClosedAt = &closedAt
		project = current

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProjectClosed,
			AggregateType: enums.AggregateProject,
			AggregateID:   id,
			Data: payloads.ProjectClosedEvent{
				ProjectID:        id,
				PreviousStatus:   previous,
				ClosedAt:         closedAt,
				LiquidatedOrders: liquidated,
				QuotedTotal:      totals.QuotedTotal,
				Incomes:          totals.Incomes,
				Expenses:         totals.VariableExpenses,
			},
		})
	})
	if err != nil {
		return nil, s.observe(ctx, id, err)
	}
	s.metrics.Transitioned(previous.String(), enums.ProjectStatusClosed.String())
	return project, nil
}

func (s *service) CheckDeletion(ctx context.Context, id uuid.UUID) (*DeletionCheck, error) {
	if _, err := s.load(ctx, s.repo.FindByID, id); err != nil {
		return nil, err
	}
	reason, err := firstViolation(ctx, id, deletionGuard(s.repo))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check deletion guard")
	}
	return &DeletionCheck{Deletable: reason == "", Reason: reason}, nil
}

// Delete removes a project that has no commitments; its remaining draft quotes go with it.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.load(ctx, repo.FindForUpdate, id); err != nil {
			return err
		}
		reason, err := firstViolation(ctx, id, deletionGuard(repo))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check deletion guard")
		}
		if reason != "" {
			return guardError(reason)
		}

		deletedQuotes, err := repo.DeleteQuotes(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete draft quotes")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete project")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProjectDeleted,
			AggregateType: enums.AggregateProject,
			AggregateID:   id,
			Data:          payloads.ProjectDeletedEvent{ProjectID: id, DeletedQuotes: deletedQuotes},
		})
	})
	return s.observe(ctx, id, err)
}

// ForceDelete bypasses every guard. Callers must restrict it to administrators.
func (s *service) ForceDelete(ctx context.Context, id uuid.UUID, actor outbox.ActorRef) (DeletionCounts, error) {
	var counts DeletionCounts
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.load(ctx, repo.FindForUpdate, id); err != nil {
			return err
		}
		deleted, err := repo.ForceDelete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "force delete project")
		}
		counts = deleted

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProjectForceDeleted,
			AggregateType: enums.AggregateProject,
			AggregateID:   id,
			Actor:         &actor,
			Data:          payloads.ProjectForceDeletedEvent{ProjectID: id, Deleted: counts.AsMap()},
		})
	})
	if err != nil {
		return DeletionCounts{}, err
	}

	s.metrics.ForceDeleted()
	fields := map[string]any{
		"project_id": id.String(),
		"actor_id":   actor.UserID.String(),
		"actor_role": actor.Role,
	}
	for table, n := range counts.AsMap() {
		fields["deleted_"+table] = n
	}
	s.logg.Audit(ctx, "project.force_delete", fields)
	return counts, nil
}

type finder func(ctx context.Context, id uuid.UUID) (*models.Project, error)

// load fetches the project through find or returns NotFound.
func (s *service) load(ctx context.Context, find finder, id uuid.UUID) (*models.Project, error) {
	project, err := find(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
	}
	if project == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	return project, nil
}

// observe counts and logs guard rejections and passes err through.
func (s *service) observe(ctx context.Context, id uuid.UUID, err error) error {
	reason := pkgerrors.ReasonOf(err)
	if reason == "" {
		return err
	}
	s.metrics.GuardRejected(reason)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"project_id": id.String(),
		"reason":     reason,
	})
	s.logg.Warn(logCtx, "project guard rejected")
	return err
}
