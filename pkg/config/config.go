package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "LOCALLOOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	Snapshot  SnapshotConfig
	DB        DBConfig
	Redis     RedisConfig
	AI        AIConfig
	Impact    ImpactConfig
	Disposal  DisposalConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig
	PubSub    PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Snapshot.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOCALLOOP_APP_ENV" default:"dev"`
	Port         string `envconfig:"LOCALLOOP_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"LOCALLOOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCALLOOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// SnapshotConfig selects where the building snapshot is persisted.
type SnapshotConfig struct {
	Backend string `envconfig:"LOCALLOOP_SNAPSHOT_BACKEND" default:"file"`
	Path    string `envconfig:"LOCALLOOP_SNAPSHOT_PATH" default:"./data/building.json"`
}

const (
	SnapshotBackendFile = "file"
	SnapshotBackendDB   = "db"
)

func (s SnapshotConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case SnapshotBackendFile, SnapshotBackendDB:
		return nil
	}
	return fmt.Errorf("unknown snapshot backend %q", s.Backend)
}

// UsesDB reports whether the snapshot lives in the relational store.
func (s SnapshotConfig) UsesDB() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), SnapshotBackendDB)
}

type DBConfig struct {
	DSN       string `envconfig:"LOCALLOOP_DB_DSN"`
	Driver    string `envconfig:"LOCALLOOP_DB_DRIVER" default:"sqlite"`
	UseSQLite bool   `envconfig:"LOCALLOOP_USE_SQLITE" default:"true"`

	MaxOpenConns    int           `envconfig:"LOCALLOOP_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"LOCALLOOP_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"LOCALLOOP_DB_CONN_MAX_LIFETIME" default:"1h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCALLOOP_REDIS_URL"`
	Address      string        `envconfig:"LOCALLOOP_REDIS_ADDR"`
	Password     string        `envconfig:"LOCALLOOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCALLOOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCALLOOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCALLOOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCALLOOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCALLOOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCALLOOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type AIConfig struct {
	APIKey          string        `envconfig:"LOCALLOOP_GEMINI_API_KEY"`
	Model           string        `envconfig:"LOCALLOOP_GEMINI_MODEL" default:"gemini-2.0-flash"`
	Temperature     float64       `envconfig:"LOCALLOOP_GEMINI_TEMPERATURE" default:"0.5"`
	MaxOutputTokens int           `envconfig:"LOCALLOOP_GEMINI_MAX_OUTPUT_TOKENS" default:"800"`
	RequestTimeout  time.Duration `envconfig:"LOCALLOOP_GEMINI_REQUEST_TIMEOUT" default:"60s"`
}

// ImpactConfig carries the fixed per-transition impact attribution constants.
type ImpactConfig struct {
	CO2PerBorrowKG    float64 `envconfig:"LOCALLOOP_IMPACT_CO2_PER_BORROW_KG" default:"2.0"`
	WastePerBorrowKG  float64 `envconfig:"LOCALLOOP_IMPACT_WASTE_PER_BORROW_KG" default:"1.0"`
	CO2PerEventItemKG float64 `envconfig:"LOCALLOOP_IMPACT_CO2_PER_EVENT_ITEM_KG" default:"1.5"`
	WastePerEventItem float64 `envconfig:"LOCALLOOP_IMPACT_WASTE_PER_EVENT_ITEM_KG" default:"0.5"`
}

// DisposalConfig tunes when pending disposal intents collapse into a
// collection event.
type DisposalConfig struct {
	IntentThreshold int `envconfig:"LOCALLOOP_DISPOSAL_INTENT_THRESHOLD" default:"2"`
	EstimatedItems  int `envconfig:"LOCALLOOP_DISPOSAL_ESTIMATED_ITEMS_PER_INTENT" default:"3"`
	EventDaysAhead  int `envconfig:"LOCALLOOP_DISPOSAL_EVENT_DAYS_AHEAD" default:"7"`
}

type ChatConfig struct {
	MaxHistoryTurns   int     `envconfig:"LOCALLOOP_CHAT_MAX_HISTORY_TURNS" default:"20"`
	MinConfidenceAuto float64 `envconfig:"LOCALLOOP_CHAT_MIN_CONFIDENCE_AUTO" default:"0.6"`
	TrustAutoConfirm  float64 `envconfig:"LOCALLOOP_CHAT_TRUST_AUTO_CONFIRM" default:"0.8"`
}

type RateLimitConfig struct {
	ChatWindow    time.Duration `envconfig:"LOCALLOOP_RATE_LIMIT_CHAT_WINDOW" default:"1m"`
	ChatUserLimit int           `envconfig:"LOCALLOOP_RATE_LIMIT_CHAT_USER_LIMIT" default:"10"`
	ChatIPLimit   int           `envconfig:"LOCALLOOP_RATE_LIMIT_CHAT_IP_LIMIT" default:"30"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"LOCALLOOP_GCP_PROJECT_ID"`
	EventsTopic string `envconfig:"LOCALLOOP_PUBSUB_EVENTS_TOPIC"`
}

// Enabled reports whether collection events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ProjectID) != "" && strings.TrimSpace(p.EventsTopic) != ""
}
