package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Settlement   SettlementConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Settlement.CommissionPercentage(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"PLASA_APP_ENV" required:"true"`
	Port         string   `envconfig:"PLASA_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"PLASA_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"PLASA_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"PLASA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"PLASA_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"PLASA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PLASA_DB_DSN"`
	Driver string `envconfig:"PLASA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLASA_DB_HOST"`
	LegacyPort     int    `envconfig:"PLASA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLASA_DB_USER"`
	LegacyPassword string `envconfig:"PLASA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLASA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLASA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLASA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLASA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLASA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLASA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLASA_REDIS_URL"`
	Address      string        `envconfig:"PLASA_REDIS_ADDR"`
	Password     string        `envconfig:"PLASA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLASA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLASA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLASA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLASA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLASA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLASA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the auth service.
type JWTConfig struct {
	Secret                 string `envconfig:"PLASA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PLASA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PLASA_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"PLASA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate           bool `envconfig:"PLASA_AUTO_MIGRATE" default:"false"`
	SessionCheck          bool `envconfig:"PLASA_SESSION_CHECK" default:"true"`
	HTTPIdempotent        bool `envconfig:"PLASA_HTTP_IDEMPOTENCY" default:"true"`
	RequireIdempotencyKey bool `envconfig:"PLASA_REQUIRE_IDEMPOTENCY_KEY" default:"false"`
}

// SettlementConfig tunes the settlement engine.
type SettlementConfig struct {
	DefaultCommissionPercentage string        `envconfig:"PLASA_DEFAULT_COMMISSION_PERCENTAGE" default:"20"`
	BroadcastTimeout            time.Duration `envconfig:"PLASA_STATUS_BROADCAST_TIMEOUT" default:"10s"`
}

// CommissionPercentage parses the fallback delivery commission percentage.
func (s SettlementConfig) CommissionPercentage() (decimal.Decimal, error) {
	raw := strings.TrimSpace(s.DefaultCommissionPercentage)
	if raw == "" {
		return decimal.NewFromInt(DefaultCommissionPercentage), nil
	}
	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", EnvDefaultCommission, err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 100", EnvDefaultCommission)
	}
	return pct, nil
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"PLASA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PLASA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PLASA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PLASA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic            string `envconfig:"PLASA_PUBSUB_ORDERS_TOPIC" default:"plasa-order-events"`
	SettlementTopic        string `envconfig:"PLASA_PUBSUB_SETTLEMENT_TOPIC" default:"plasa-settlement-events"`
	AnalyticsSubscription  string `envconfig:"PLASA_PUBSUB_ANALYTICS_SUBSCRIPTION"`
	SettlementSubscription string `envconfig:"PLASA_PUBSUB_SETTLEMENT_SUBSCRIPTION"`
}

type BigQueryConfig struct {
	Dataset               string `envconfig:"PLASA_BIGQUERY_DATASET" default:"plasa"`
	SettlementEventsTable string `envconfig:"PLASA_BIGQUERY_SETTLEMENT_TABLE" default:"settlement_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLASA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLASA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLASA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"PLASA_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"PLASA_CRON_INTERVAL" default:"15m"`
	LockKey            string        `envconfig:"PLASA_CRON_LOCK_KEY" default:"plasa:cron:lock"`
	LockTTL            time.Duration `envconfig:"PLASA_CRON_LOCK_TTL" default:"14m"`
	JobTimeout         time.Duration `envconfig:"PLASA_CRON_JOB_TIMEOUT" default:"5m"`
	ReconcileLookback  time.Duration `envconfig:"PLASA_REVENUE_RECONCILE_LOOKBACK" default:"72h"`
	ReconcileBatchSize int           `envconfig:"PLASA_REVENUE_RECONCILE_BATCH_SIZE" default:"200"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
