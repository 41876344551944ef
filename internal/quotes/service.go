// Package quotes owns the quote aggregate: creation, wholesale item replacement and status writes.
package quotes

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/catalog"
	"github.com/angelmondragon/quoteengine-backend/internal/clients"
	"github.com/angelmondragon/quoteengine-backend/internal/customizations"
	"github.com/angelmondragon/quoteengine-backend/internal/pricing"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/quoteengine-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type tierRecorder interface {
	TierResolved(fallback bool)
}

// Service is the quote aggregate.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Quote, error)
	ReplaceAll(ctx context.Context, quoteID uuid.UUID, input ReplaceItemsInput) (*models.Quote, error)
	UpdateStatus(ctx context.Context, quoteID uuid.UUID, status enums.QuoteStatus) (*models.Quote, error)
	Get(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params) (pagination.Page[models.Quote], error)
	Delete(ctx context.Context, quoteID uuid.UUID) error
}

// Deps groups the collaborators of the quote service.
type Deps struct {
	Repo           Repository
	Clients        clients.Repository
	Catalog        catalog.Repository
	Customizations customizations.Repository
	Tx             txRunner
	Outbox         outbox.Emitter
	Metrics        tierRecorder
	DefaultRates   pricing.Rates
}

type service struct {
	repo           Repository
	clients        clients.Repository
	catalog        catalog.Repository
	customizations customizations.Repository
	tx             txRunner
	outbox         outbox.Emitter
	metrics        tierRecorder
	defaults       pricing.Rates
}

// NewService wires the quote aggregate.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("quote repository required")
	case deps.Clients == nil:
		return nil, fmt.Errorf("client repository required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case deps.Customizations == nil:
		return nil, fmt.Errorf("customization repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	if err := deps.DefaultRates.Validate(); err != nil {
		return nil, err
	}
	return &service{
		repo:           deps.Repo,
		clients:        deps.Clients,
		catalog:        deps.Catalog,
		customizations: deps.Customizations,
		tx:             deps.Tx,
		outbox:         deps.Outbox,
		metrics:        deps.Metrics,
		defaults:       deps.DefaultRates,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Quote, error) {
	rates, err := s.resolveRates(input.Rates)
	if err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var quote *models.Quote
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		client, err := clients.Resolve(ctx, s.clients.WithTx(tx), input.Client)
		if err != nil {
			return err
		}

		version := 1
		if input.ProjectID != nil {
			project, err := repo.FindProject(ctx, *input.ProjectID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
			}
			if project == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
			}
			if project.ClientID != client.ID {
				return pkgerrors.New(pkgerrors.CodeValidation, "quote client must match the project client")
			}
			if project.IsFinanciallyClosed() {
				return pkgerrors.Guard(enums.GuardReasonFinanciallyClosed.String(), "project is financially closed")
			}
			if version, err = repo.NextVersion(ctx, project.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign quote version")
			}
		}

		items, err := s.buildItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		quote = &models.Quote{
			ClientID:  client.ID,
			ProjectID: input.ProjectID,
			Version:   version,
			Notes:     input.Notes,
			Items:     items,
		}
		quote.SetStatus(enums.QuoteStatusDraft)
		applyTotals(quote, items, rates)

		if err := repo.Create(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create quote")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteCreated,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Data: payloads.QuoteCreatedEvent{
				QuoteID:   quote.ID,
				ClientID:  quote.ClientID,
				ProjectID: quote.ProjectID,
				Version:   quote.Version,
				Status:    quote.Status,
				ItemCount: len(items),
				Subtotal:  quote.Subtotal,
				IVAAmount: quote.IVAAmount,
				ISRAmount: quote.ISRAmount,
				Total:     quote.Total,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) ReplaceAll(ctx context.Context, quoteID uuid.UUID, input ReplaceItemsInput) (*models.Quote, error) {
	rates, err := s.resolveRates(input.Rates)
	if err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var quote *models.Quote
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindForUpdate(ctx, quoteID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quote")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		if err := s.ensureProjectOpen(ctx, repo, current.ProjectID); err != nil {
			return err
		}

		items, err := s.buildItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = current.ID
		}

		if _, err := repo.DeleteItems(ctx, current.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete quote items")
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert quote items")
		}
		applyTotals(current, items, rates)
		if err := repo.UpdateTotals(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quote totals")
		}
		current.Items = items
		quote = current

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteItemsReplaced,
			AggregateType: enums.AggregateQuote,
			AggregateID:   current.ID,
			Data: payloads.QuoteItemsReplacedEvent{
				QuoteID:   current.ID,
				ProjectID: current.ProjectID,
				ItemCount: len(items),
				Subtotal:  current.Subtotal,
				Total:     current.Total,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) UpdateStatus(ctx context.Context, quoteID uuid.UUID, status enums.QuoteStatus) (*models.Quote, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid quote status %q", status).
			WithDetails(map[string]any{"status": "must be one of draft, approved, rejected, replaced"})
	}

	var quote *models.Quote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindForUpdate(ctx, quoteID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quote")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}

		previous := current.Status
		current.SetStatus(status)
		if err := repo.UpdateStatus(ctx, current.ID, current.Status, current.IsApproved); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quote status")
		}
		quote = current

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteStatusChanged,
			AggregateType: enums.AggregateQuote,
			AggregateID:   current.ID,
			Data: payloads.QuoteStatusChangedEvent{
				QuoteID:        current.ID,
				ProjectID:      current.ProjectID,
				PreviousStatus: previous,
				Status:         current.Status,
				IsApproved:     current.IsApproved,
				Total:          current.Total,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) Get(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quote")
	}
	if quote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return quote, nil
}

func (s *service) ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params) (pagination.Page[models.Quote], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Quote]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListByProject(ctx, projectID, params)
	if err != nil {
		return pagination.Page[models.Quote]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list quotes")
	}
	return page, nil
}

// Delete removes a quote explicitly. Approved quotes and quotes with recorded
// incomes stay.
func (s *service) Delete(ctx context.Context, quoteID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindForUpdate(ctx, quoteID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quote")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		if current.IsApproved {
			return pkgerrors.Guard(enums.GuardReasonApprovedQuotes.String(), "approved quotes cannot be deleted")
		}
		hasIncomes, err := repo.HasIncomes(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check quote incomes")
		}
		if hasIncomes {
			return pkgerrors.Guard(enums.GuardReasonIncomes.String(), "quote has recorded incomes")
		}
		if err := s.ensureProjectOpen(ctx, repo, current.ProjectID); err != nil {
			return err
		}
		if err := repo.Delete(ctx, current.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete quote")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteDeleted,
			AggregateType: enums.AggregateQuote,
			AggregateID:   current.ID,
			Data:          payloads.QuoteDeletedEvent{QuoteID: current.ID, ProjectID: current.ProjectID},
		})
	})
}

func (s *service) ensureProjectOpen(ctx context.Context, repo Repository, projectID *uuid.UUID) error {
	if projectID == nil {
		return nil
	}
	project, err := repo.FindProject(ctx, *projectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
	}
	if project != nil && project.IsFinanciallyClosed() {
		return pkgerrors.Guard(enums.GuardReasonFinanciallyClosed.String(), "project is financially closed")
	}
	return nil
}

func (s *service) resolveRates(input RatesInput) (pricing.Rates, error) {
	rates, err := pricing.ResolveRates(input.IVARate, input.ISRRate, s.defaults)
	if err != nil {
		return pricing.Rates{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return rates, nil
}

// buildItems prices every input line and snapshots referenced catalog products.
func (s *service) buildItems(ctx context.Context, tx *gorm.DB, inputs []ItemInput) ([]models.QuoteItem, error) {
	productIDs := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		if in.ProductID != nil {
			productIDs = append(productIDs, *in.ProductID)
		}
	}
	products, err := s.catalog.WithTx(tx).FindProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog products")
	}

	items := make([]models.QuoteItem, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(in.Description) == "" {
			return nil, validationErr(field+".description", "is required")
		}
		if !(in.Quantity > 0) || math.IsInf(in.Quantity, 0) {
			return nil, validationErr(field+".quantity", "must be greater than zero")
		}

		item := models.QuoteItem{
			Position:      i,
			Description:   strings.TrimSpace(in.Description),
			Quantity:      in.Quantity,
			ArticleCost:   in.Costs.Article,
			WorkforceCost: in.Costs.Workforce,
			PackagingCost: in.Costs.Packaging,
			TransportCost: in.Costs.Transport,
			EquipmentCost: in.Costs.Equipment,
			OtherCost:     in.Costs.Other,
			ProfitMargin:  in.ProfitMargin,
		}

		if in.ProductID != nil {
			product, ok := products[*in.ProductID]
			if !ok {
				return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s.product_id not found in catalog", field)
			}
			item.ProductID = &product.ID
			item.ProductCode = &product.Code
			item.ProductName = &product.Name
		}

		if in.Customization != nil {
			if err := s.priceCustomization(ctx, tx, field, in, &item); err != nil {
				return nil, err
			}
		} else {
			priced := pricing.PriceItem(in.Costs, in.ProfitMargin, in.Quantity, in.UnitCost)
			item.InternalUnitCost = priced.InternalUnitCost
			item.UnitCost = priced.UnitCost
			item.Subtotal = priced.Subtotal
		}
		items = append(items, item)
	}
	return items, nil
}

// priceCustomization prices the line through its service tiers. The setup fee is spread over
// the units so subtotal stays unit_cost * quantity.
func (s *service) priceCustomization(ctx context.Context, tx *gorm.DB, field string, in ItemInput, item *models.QuoteItem) error {
	if in.Quantity != math.Trunc(in.Quantity) {
		return validationErr(field+".quantity", "must be a whole number for customization items")
	}
	record, err := s.customizations.WithTx(tx).FindByID(ctx, in.Customization.ServiceID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customization service")
	}
	if record == nil {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s.customization.service_id not found", field)
	}

	res, err := pricing.ResolveTier(customizations.ToPricing(*record), int(in.Quantity), in.Customization.TimeInMinutes, in.Customization.Margin)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.TierResolved(res.Breakdown.Fallback)
	}

	item.CustomizationServiceID = &record.ID
	item.CustomizationBreakdown = customizations.BreakdownModel(res.Breakdown)
	item.InternalUnitCost = res.UnitCost
	item.ProfitMargin = res.Breakdown.Margin
	item.UnitCost = res.Total / in.Quantity
	item.Subtotal = res.Total
	return nil
}

func applyTotals(quote *models.Quote, items []models.QuoteItem, rates pricing.Rates) {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{Subtotal: item.Subtotal})
	}
	totals := pricing.CalculateTotals(lines, rates)
	quote.Subtotal = totals.Subtotal
	quote.IVARate = rates.IVA
	quote.IVAAmount = totals.IVAAmount
	quote.ISRRate = rates.ISR
	quote.ISRAmount = totals.ISRAmount
	quote.Total = totals.Total
}

func validationErr(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, field+" "+msg).
		WithDetails(map[string]string{field: msg})
}
