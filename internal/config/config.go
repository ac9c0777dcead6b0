// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port            int
	StoreDriver     string
	DatabaseURL     string
	MongoURI        string
	MongoDatabase   string
	KafkaBrokers    []string
	KafkaPrefix     string
	JWTSecret       string
	ShutdownTimeout time.Duration
}

// Load reads .env if present and then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return Parse(os.Getenv)
}

// Parse builds a Config from getenv and validates the store settings.
func Parse(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:            8080,
		StoreDriver:     DriverMemory,
		MongoDatabase:   "ledger",
		KafkaPrefix:     "ledger",
		ShutdownTimeout: 10 * time.Second,
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := getenv("STORE_DRIVER"); v != "" {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	cfg.MongoURI = getenv("MONGO_URI")
	if v := getenv("MONGO_DATABASE"); v != "" {
		cfg.MongoDatabase = v
	}
	cfg.KafkaBrokers = splitList(getenv("KAFKA_BROKERS"))
	if v, ok := lookup(getenv, "KAFKA_TOPIC_PREFIX"); ok {
		cfg.KafkaPrefix = v
	}
	cfg.JWTSecret = getenv("JWT_SECRET")
	if v := getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.validateStore(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validateStore() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// lookup treats a variable set to the literal "-" as explicitly empty.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch v {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return v, true
	}
}
