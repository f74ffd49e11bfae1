package utils

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// StorageMemory selects the in-process store instead of Postgres.
const StorageMemory = "memory"

// DefaultJWTSecret is the signing key used when JWT_SECRET is unset.
const DefaultJWTSecret = "dev-secret"

type Config struct {
	ServerPort    string        `env:"PORT" envDefault:"8080"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	StorageDriver string        `env:"STORAGE_DRIVER" envDefault:"postgres"`

	Postgres   PostgresConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Character  CharacterAPIConfig
	Logging    LoggingConfig
	LoginLimit RateLimitConfig
}

type PostgresConfig struct {
	DSN               string        `env:"POSTGRES_DSN"`
	Host              string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port              int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User              string        `env:"POSTGRES_USER" envDefault:"postgres"`
	Password          string        `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Database          string        `env:"POSTGRES_DB" envDefault:"guild"`
	MaxConns          int32         `env:"POSTGRES_MAX_CONNS" envDefault:"8"`
	MinConns          int32         `env:"POSTGRES_MIN_CONNS" envDefault:"1"`
	MaxConnLifetime   time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime   time.Duration `env:"POSTGRES_MAX_CONN_IDLE" envDefault:"30m"`
	HealthCheckPeriod time.Duration `env:"POSTGRES_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	ConnectTimeout    time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" envDefault:"5s"`
}

// MongoConfig is optional; an empty URI disables profile archiving to Mongo.
type MongoConfig struct {
	URI            string        `env:"MONGO_URI"`
	Database       string        `env:"MONGO_DATABASE" envDefault:"guild"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"5s"`
}

// RedisConfig is optional; an empty address disables the lookup cache.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"REDIS_CHARACTER_TTL" envDefault:"15m"`
}

// CharacterAPIConfig selects the game data provider. Without client
// credentials the deterministic stub is used.
type CharacterAPIConfig struct {
	BaseURL      string        `env:"CHARACTER_API_BASE_URL" envDefault:"https://us.api.blizzard.com"`
	TokenURL     string        `env:"CHARACTER_API_TOKEN_URL" envDefault:"https://oauth.battle.net/token"`
	ClientID     string        `env:"CHARACTER_API_CLIENT_ID"`
	ClientSecret string        `env:"CHARACTER_API_CLIENT_SECRET"`
	Namespace    string        `env:"CHARACTER_API_NAMESPACE" envDefault:"profile-us"`
	Locale       string        `env:"CHARACTER_API_LOCALE" envDefault:"en_US"`
	Timeout      time.Duration `env:"CHARACTER_API_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether real upstream credentials are configured.
func (c CharacterAPIConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type LoggingConfig struct {
	Level        string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding     string `env:"LOG_ENCODING" envDefault:"console"`
	Development  bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
	EnableCaller bool   `env:"LOG_CALLER" envDefault:"false"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"guild-recruit"`
}

// RateLimitConfig bounds credential attempts per client address.
type RateLimitConfig struct {
	PerSecond float64 `env:"LOGIN_RATE_PER_SECOND" envDefault:"1"`
	Burst     int     `env:"LOGIN_RATE_BURST" envDefault:"5"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return &cfg, nil
}

// UsesDefaultSecret reports whether tokens are signed with the built-in key.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// CheckSecret refuses the built-in signing key outside the memory driver.
func (c Config) CheckSecret() error {
	if c.UsesDefaultSecret() && c.StorageDriver != StorageMemory {
		return fmt.Errorf("config: JWT_SECRET must be set when STORAGE_DRIVER=%s", c.StorageDriver)
	}
	return nil
}

func (c PostgresConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}
