package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/quoteengine-backend/api/controllers"
	projectcontrollers "github.com/angelmondragon/quoteengine-backend/api/controllers/projects"
	"github.com/angelmondragon/quoteengine-backend/api/middleware"
	"github.com/angelmondragon/quoteengine-backend/internal/customizations"
	"github.com/angelmondragon/quoteengine-backend/internal/ledger"
	"github.com/angelmondragon/quoteengine-backend/internal/pricing"
	"github.com/angelmondragon/quoteengine-backend/internal/projects"
	"github.com/angelmondragon/quoteengine-backend/internal/quotes"
	"github.com/angelmondragon/quoteengine-backend/internal/supplierorders"
	"github.com/angelmondragon/quoteengine-backend/pkg/config"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/redis"
)

// Services bundles the engine services exposed over HTTP.
type Services struct {
	Customizations customizations.Service
	Quotes         quotes.Service
	Projects       projects.Service
	SupplierOrders supplierorders.Service
	Ledger         ledger.Service
}

// Infra bundles the shared infrastructure the router needs.
type Infra struct {
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Readiness   map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.Readiness))
	})

	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	defaultRates := pricing.Rates{IVA: cfg.Pricing.DefaultIVARate, ISR: cfg.Pricing.DefaultISRRate}
	writer := middleware.RequireWriter(logg)
	idem := middleware.NewIdempotency(infra.Idempotency, logg)
	replay := idem.For(middleware.ReplayWindow)
	lifecycleReplay := idem.For(middleware.LifecycleReplayWindow)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/pricing/totals", controllers.PricingTotals(defaultRates, cfg.Pricing.CurrencyScale, logg))

		r.Route("/customizations", func(r chi.Router) {
			r.Get("/", controllers.CustomizationList(svc.Customizations, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).Post("/", controllers.CustomizationCreate(svc.Customizations, logg))
			r.Get("/{serviceID}", controllers.CustomizationDetail(svc.Customizations, logg))
			r.Post("/{serviceID}/quote", controllers.CustomizationQuote(svc.Customizations, logg))
		})

		r.Route("/quotes", func(r chi.Router) {
			r.With(writer, replay).Post("/", controllers.QuoteCreate(svc.Quotes, logg))
			r.Get("/{quoteID}", controllers.QuoteDetail(svc.Quotes, logg))
			r.With(writer).Put("/{quoteID}/items", controllers.QuoteReplaceItems(svc.Quotes, logg))
			r.With(writer).Patch("/{quoteID}/status", controllers.QuoteUpdateStatus(svc.Quotes, logg))
			r.With(writer).Delete("/{quoteID}", controllers.QuoteDelete(svc.Quotes, logg))
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectcontrollers.List(svc.Projects, logg))
			r.With(writer).Post("/", projectcontrollers.Create(svc.Projects, logg))

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", projectcontrollers.Detail(svc.Projects, logg))
				r.Get("/summary", projectcontrollers.Summary(svc.Projects, logg))
				r.Get("/close-eligibility", projectcontrollers.CloseEligibility(svc.Projects, logg))
				r.Get("/deletion-check", projectcontrollers.DeletionCheck(svc.Projects, logg))
				r.Get("/quotes", controllers.ProjectQuotes(svc.Quotes, logg))
				r.Get("/supplier-orders", controllers.SupplierOrderList(svc.SupplierOrders, logg))
				r.Get("/incomes", controllers.IncomeList(svc.Ledger, logg))
				r.Get("/expenses", controllers.ExpenseList(svc.Ledger, logg))

				r.Group(func(r chi.Router) {
					r.Use(writer)
					r.Patch("/status", projectcontrollers.UpdateStatus(svc.Projects, logg))
					r.Post("/cancel", projectcontrollers.Cancel(svc.Projects, logg))
					r.With(lifecycleReplay).Post("/close", projectcontrollers.Close(svc.Projects, logg))
					r.Delete("/", projectcontrollers.Delete(svc.Projects, logg))
					r.Post("/supplier-orders", controllers.SupplierOrderCreate(svc.SupplierOrders, logg))
					r.With(replay).Post("/incomes", controllers.IncomeCreate(svc.Ledger, logg))
					r.Post("/expenses", controllers.ExpenseCreate(svc.Ledger, logg))
				})
			})
		})

		r.Route("/supplier-orders", func(r chi.Router) {
			r.Get("/{orderID}", controllers.SupplierOrderDetail(svc.SupplierOrders, logg))
			r.With(writer, replay).Post("/{orderID}/payments", controllers.SupplierOrderPayment(svc.SupplierOrders, logg))
		})

		r.With(writer).Post("/fixed-expenses", controllers.FixedExpenseCreate(svc.Ledger, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.With(lifecycleReplay).Delete("/projects/{projectID}", projectcontrollers.AdminForceDelete(svc.Projects, logg))
		})
	})

	return r
}
