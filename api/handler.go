package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/quoteengine-backend/api/routes"
	"github.com/angelmondragon/quoteengine-backend/internal/catalog"
	"github.com/angelmondragon/quoteengine-backend/internal/clients"
	"github.com/angelmondragon/quoteengine-backend/internal/customizations"
	"github.com/angelmondragon/quoteengine-backend/internal/ledger"
	"github.com/angelmondragon/quoteengine-backend/internal/pricing"
	"github.com/angelmondragon/quoteengine-backend/internal/projects"
	"github.com/angelmondragon/quoteengine-backend/internal/quotes"
	"github.com/angelmondragon/quoteengine-backend/internal/supplierorders"
	"github.com/angelmondragon/quoteengine-backend/pkg/config"
	"github.com/angelmondragon/quoteengine-backend/pkg/db"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/metrics"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
)

// Deps carries the process-wide collaborators the HTTP surface is built from.
type Deps struct {
	DB      *db.Client
	Outbox  outbox.Emitter
	Metrics *metrics.EngineMetrics
	Infra   routes.Infra
	Now     func() time.Time
}

// BuildServices wires repositories and engine services over a single database client.
func BuildServices(cfg *config.Config, logg *logger.Logger, deps Deps) (routes.Services, error) {
	if deps.DB == nil {
		return routes.Services{}, fmt.Errorf("db client required")
	}
	if deps.Outbox == nil {
		return routes.Services{}, fmt.Errorf("outbox emitter required")
	}

	conn := deps.DB.DB()
	scale := cfg.Pricing.CurrencyScale
	catalogRepo := catalog.NewRepository(conn)
	clientRepo := clients.NewRepository(conn)
	customizationRepo := customizations.NewRepository(conn)

	customizationSvc, err := customizations.NewService(customizationRepo, deps.DB, deps.Metrics)
	if err != nil {
		return routes.Services{}, fmt.Errorf("customization service: %w", err)
	}

	quoteSvc, err := quotes.NewService(quotes.Deps{
		Repo:           quotes.NewRepository(conn),
		Clients:        clientRepo,
		Catalog:        catalogRepo,
		Customizations: customizationRepo,
		Tx:             deps.DB,
		Outbox:         deps.Outbox,
		Metrics:        deps.Metrics,
		DefaultRates:   pricing.Rates{IVA: cfg.Pricing.DefaultIVARate, ISR: cfg.Pricing.DefaultISRRate},
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("quote service: %w", err)
	}

	orderSvc, err := supplierorders.NewService(supplierorders.NewRepository(conn), catalogRepo, deps.DB, deps.Outbox, scale)
	if err != nil {
		return routes.Services{}, fmt.Errorf("supplier order service: %w", err)
	}

	projectSvc, err := projects.NewService(projects.Deps{
		Repo:    projects.NewRepository(conn),
		Clients: clientRepo,
		Orders:  orderSvc,
		Tx:      deps.DB,
		Outbox:  deps.Outbox,
		Metrics: deps.Metrics,
		Logger:  logg,
		Now:     deps.Now,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("project service: %w", err)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), deps.DB, scale)
	if err != nil {
		return routes.Services{}, fmt.Errorf("ledger service: %w", err)
	}

	return routes.Services{
		Customizations: customizationSvc,
		Quotes:         quoteSvc,
		Projects:       projectSvc,
		SupplierOrders: orderSvc,
		Ledger:         ledgerSvc,
	}, nil
}

// NewHandler returns the HTTP handler that cmd/api wires into its server.
func NewHandler(cfg *config.Config, logg *logger.Logger, deps Deps) (http.Handler, error) {
	services, err := BuildServices(cfg, logg, deps)
	if err != nil {
		return nil, err
	}
	return routes.NewRouter(cfg, logg, deps.Infra, services), nil
}
