package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quoteengine-backend/api/routes"
	pkgAuth "github.com/angelmondragon/quoteengine-backend/pkg/auth"
	"github.com/angelmondragon/quoteengine-backend/pkg/config"
	"github.com/angelmondragon/quoteengine-backend/pkg/db"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/metrics"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
)

type harness struct {
	t       *testing.T
	conn    *db.Client
	handler http.Handler
	cfg     *config.Config
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Reason  string          `json:"reason"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test", Port: "0"},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "quoteengine", ExpirationMinutes: 60},
		Pricing: config.PricingConfig{DefaultIVARate: 0.16, CurrencyScale: 2},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	conn := dbtest.Open(t)
	reg := prometheus.NewRegistry()

	handler, err := NewHandler(cfg, logg, Deps{
		DB:      conn,
		Outbox:  outbox.NewService(outbox.NewRepository(conn.DB()), logg),
		Metrics: metrics.NewEngineMetrics(reg),
		Infra:   routes.Infra{Gatherer: reg},
	})
	require.NoError(t, err)

	return &harness{t: t, conn: conn, handler: handler, cfg: cfg}
}

func (h *harness) do(method, path string, role enums.UserRole, body any) (int, envelope) {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	require.NoError(h.t, err)

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestQuoteLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(http.MethodPost, "/api/v1/projects", enums.UserRoleSeller, map[string]any{
		"client": map[string]any{"client_name": "Acme"},
		"name":   "Expo booth",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	project := decodeData[models.Project](t, env)
	assert.Equal(t, enums.ProjectStatusDraft, project.Status)
	assert.NotNil(t, project.UserID)

	status, env = h.do(http.MethodPost, "/api/v1/quotes", enums.UserRoleSeller, map[string]any{
		"client":     map[string]any{"client_id": project.ClientID},
		"project_id": project.ID,
		"rates":      map[string]any{"isr_rate": 0.0125},
		"items": []map[string]any{
			{"description": "Mugs", "quantity": 10, "costs": map[string]any{"article_cost": 80, "workforce_cost": 20}},
			{"description": "Bags", "quantity": 5, "costs": map[string]any{"article_cost": 100}},
		},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	quote := decodeData[models.Quote](t, env)
	assert.InDelta(t, 1500, quote.Subtotal, 1e-9)
	assert.InDelta(t, 1721.25, quote.Total, 1e-9)
	assert.Equal(t, 1, quote.Version)

	status, env = h.do(http.MethodPatch, "/api/v1/quotes/"+quote.ID.String()+"/status", enums.UserRoleSeller, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = h.do(http.MethodDelete, "/api/v1/projects/"+project.ID.String(), enums.UserRoleSeller, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	assert.Equal(t, "approved_quotes", env.Reason)

	status, env = h.do(http.MethodGet, "/api/v1/projects/"+project.ID.String()+"/deletion-check", enums.UserRoleViewer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"deletable":false,"reason":"approved_quotes"}`, string(env.Data))

	status, env = h.do(http.MethodDelete, "/api/v1/admin/projects/"+project.ID.String(), enums.UserRoleAdmin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	var remaining int64
	require.NoError(t, h.conn.DB().Model(&models.Quote{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	var events int64
	require.NoError(t, h.conn.DB().Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.GreaterOrEqual(t, events, int64(4))
}

func TestCloseFreezesProjectOverHTTP(t *testing.T) {
	h := newHarness(t)

	supplier := &models.Supplier{Name: "Printer"}
	require.NoError(t, h.conn.DB().Create(supplier).Error)

	status, env := h.do(http.MethodPost, "/api/v1/projects", enums.UserRoleSeller, map[string]any{
		"client": map[string]any{"client_name": "Acme"},
		"name":   "Launch",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	project := decodeData[models.Project](t, env)
	base := "/api/v1/projects/" + project.ID.String()

	status, env = h.do(http.MethodPost, base+"/supplier-orders", enums.UserRoleSeller, map[string]any{
		"supplier_id": supplier.ID,
		"items":       []map[string]any{{"code": "P-1", "name": "Banner", "quantity": 2, "unit_cost": 150}},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = h.do(http.MethodGet, base+"/close-eligibility", enums.UserRoleViewer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"eligible":false,"pending_orders":1,"reason":"pending_orders"}`, string(env.Data))

	status, env = h.do(http.MethodPost, base+"/close", enums.UserRoleSeller, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "STATE_CONFLICT", env.Code)

	status, env = h.do(http.MethodPatch, base+"/status", enums.UserRoleSeller, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = h.do(http.MethodPost, base+"/close", enums.UserRoleSeller, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	closed := decodeData[models.Project](t, env)
	assert.Equal(t, enums.FinancialStatusClosed, closed.FinancialStatus)

	status, env = h.do(http.MethodPatch, base+"/status", enums.UserRoleSeller, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "financially_closed", env.Reason)

	status, env = h.do(http.MethodPost, base+"/incomes", enums.UserRoleSeller, map[string]any{"amount": 100, "description": "late deposit"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "financially_closed", env.Reason)
}
