package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Scoring      ScoringConfig
	Notify       NotifyConfig
	Eventing     EventingConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KAIUB_APP_ENV" required:"true"`
	Port         string `envconfig:"KAIUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KAIUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAIUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KAIUB_DB_DSN"`
	Driver string `envconfig:"KAIUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KAIUB_DB_HOST"`
	LegacyPort     int    `envconfig:"KAIUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KAIUB_DB_USER"`
	LegacyPassword string `envconfig:"KAIUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"KAIUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"KAIUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KAIUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KAIUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KAIUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KAIUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KAIUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KAIUB_REDIS_ADDR"`
	Password     string        `envconfig:"KAIUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"KAIUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KAIUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KAIUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KAIUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAIUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KAIUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KAIUB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"KAIUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KAIUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic          string `envconfig:"KAIUB_PUBSUB_DOMAIN_TOPIC" default:"kaiub-domain-events"`
	MatchingSubscription string `envconfig:"KAIUB_PUBSUB_MATCHING_SUBSCRIPTION" required:"true"`
	NotifySubscription   string `envconfig:"KAIUB_PUBSUB_NOTIFY_SUBSCRIPTION" required:"true"`
}

// ScoringConfig drives the remote match scorer. An empty APIKey disables the
// remote call entirely and the heuristic scorer is used instead.
type ScoringConfig struct {
	APIKey  string        `envconfig:"KAIUB_OPENAI_API_KEY"`
	BaseURL string        `envconfig:"KAIUB_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model   string        `envconfig:"KAIUB_OPENAI_MODEL" default:"gpt-5-mini-2025-08-07"`
	Timeout time.Duration `envconfig:"KAIUB_OPENAI_TIMEOUT" default:"10s"`
}

// Enabled reports whether a remote scoring credential is configured.
func (s ScoringConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type NotifyConfig struct {
	SenderName string `envconfig:"KAIUB_NOTIFY_SENDER_NAME" default:"Kaiub"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"KAIUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"KAIUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"KAIUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"KAIUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KAIUB_AUTO_MIGRATE" default:"false"`
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
