package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"google.golang.org/api/option"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"QUOTEENGINE_APP_ENV" required:"true"`
	Port         string   `envconfig:"QUOTEENGINE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"QUOTEENGINE_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"QUOTEENGINE_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"QUOTEENGINE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"QUOTEENGINE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"QUOTEENGINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"QUOTEENGINE_DB_DSN"`
	Driver string `envconfig:"QUOTEENGINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUOTEENGINE_DB_HOST"`
	LegacyPort     int    `envconfig:"QUOTEENGINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUOTEENGINE_DB_USER"`
	LegacyPassword string `envconfig:"QUOTEENGINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUOTEENGINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUOTEENGINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUOTEENGINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUOTEENGINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUOTEENGINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUOTEENGINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"QUOTEENGINE_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
	TxRetries          int           `envconfig:"QUOTEENGINE_DB_TX_RETRIES" default:"0"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUOTEENGINE_REDIS_URL"`
	Address      string        `envconfig:"QUOTEENGINE_REDIS_ADDR"`
	Password     string        `envconfig:"QUOTEENGINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUOTEENGINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUOTEENGINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUOTEENGINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUOTEENGINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUOTEENGINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUOTEENGINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"QUOTEENGINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QUOTEENGINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"QUOTEENGINE_JWT_EXPIRATION_MINUTES" default:"60"`
	Audience          string `envconfig:"QUOTEENGINE_JWT_AUDIENCE"`
	LeewaySeconds     int    `envconfig:"QUOTEENGINE_JWT_LEEWAY_SECONDS" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"QUOTEENGINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QUOTEENGINE_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the tax defaults applied when a caller omits rates.
type PricingConfig struct {
	DefaultIVARate float64 `envconfig:"QUOTEENGINE_PRICING_DEFAULT_IVA_RATE" default:"0.16"`
	DefaultISRRate float64 `envconfig:"QUOTEENGINE_PRICING_DEFAULT_ISR_RATE" default:"0"`
	CurrencyScale  int32   `envconfig:"QUOTEENGINE_PRICING_CURRENCY_SCALE" default:"2"`
}

func (p PricingConfig) validate() error {
	if p.DefaultIVARate < 0 || p.DefaultIVARate > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvPricingIVARate)
	}
	if p.DefaultISRRate < 0 || p.DefaultISRRate > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvPricingISRRate)
	}
	if p.CurrencyScale < 0 {
		return fmt.Errorf("%s must not be negative", EnvPricingCurrencyScale)
	}
	return nil
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"QUOTEENGINE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	IdempotencyLease     time.Duration `envconfig:"QUOTEENGINE_EVENTING_IDEMPOTENCY_LEASE" default:"2m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"QUOTEENGINE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"QUOTEENGINE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"QUOTEENGINE_GOOGLE_APPLICATION_CREDENTIALS"`
}

// ClientOptions picks inline JSON credentials over a credentials file. With
// neither set the Google clients fall back to application default credentials.
func (g GCPConfig) ClientOptions() []option.ClientOption {
	switch {
	case strings.TrimSpace(g.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(g.CredentialsJSON))}
	case strings.TrimSpace(g.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(g.ApplicationCredentials)}
	}
	return nil
}

// PubSubConfig names the single domain topic and the analytics subscription attached to it.
type PubSubConfig struct {
	DomainTopic           string `envconfig:"QUOTEENGINE_PUBSUB_DOMAIN_TOPIC" default:"qe-domain-events"`
	AnalyticsSubscription string `envconfig:"QUOTEENGINE_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"qe-domain-events-analytics"`
}

type BigQueryConfig struct {
	Dataset             string `envconfig:"QUOTEENGINE_BIGQUERY_DATASET" default:"quoteengine"`
	ProjectFinanceTable string `envconfig:"QUOTEENGINE_BIGQUERY_PROJECT_FINANCE_TABLE" default:"project_finance_events"`
	QuoteActivityTable  string `envconfig:"QUOTEENGINE_BIGQUERY_QUOTE_ACTIVITY_TABLE" default:"quote_activity_events"`
	CreateMissingTables bool   `envconfig:"QUOTEENGINE_BIGQUERY_CREATE_TABLES" default:"false"`
	BatchSize           int    `envconfig:"QUOTEENGINE_BIGQUERY_BATCH_SIZE" default:"1"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"QUOTEENGINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"QUOTEENGINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"QUOTEENGINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
