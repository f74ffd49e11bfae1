// Package config loads settings for the operational scripts under cmd/scripts.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/wuwenbin0122/guild-recruit/internal/utils"
)

type Config struct {
	DBURL           string
	MongoURI        string
	MongoDatabase   string
	OfficerUsername string
	OfficerPassword string
	OfficerRole     string
}

var (
	cfg     *Config
	loadErr error
	once    sync.Once
)

func Load() (*Config, error) {
	once.Do(func() {
		if err := loadEnvFiles(); err != nil {
			loadErr = fmt.Errorf("load env files: %w", err)
			return
		}

		dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
		if dbURL == "" {
			dbURL = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
		}

		cfg = &Config{
			DBURL:           dbURL,
			MongoURI:        strings.TrimSpace(os.Getenv("MONGO_URI")),
			MongoDatabase:   getEnv("MONGO_DATABASE", "guild"),
			OfficerUsername: getEnv("OFFICER_USERNAME", "officer"),
			OfficerPassword: strings.TrimSpace(os.Getenv("OFFICER_PASSWORD")),
			OfficerRole:     getEnv("OFFICER_ROLE", "officer"),
		}

		loadErr = cfg.validate()
	})

	return cfg, loadErr
}

// Postgres converts the script settings into a pool configuration.
func (c *Config) Postgres() utils.PostgresConfig {
	return utils.PostgresConfig{
		DSN:            c.DBURL,
		MaxConns:       2,
		ConnectTimeout: 5 * time.Second,
	}
}

// Mongo returns the archive settings; the URI may be empty.
func (c *Config) Mongo() utils.MongoConfig {
	return utils.MongoConfig{
		URI:            c.MongoURI,
		Database:       c.MongoDatabase,
		ConnectTimeout: 5 * time.Second,
	}
}

func loadEnvFiles() error {
	if err := godotenv.Load("config/.env"); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			// ignore missing config/.env so that environment variables can be supplied externally
			return nil
		}

		return err
	}

	return nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return errors.New("missing required environment variable: DB_URL")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}

	return strings.TrimSpace(fallback)
}
