// Package config loads service settings from the environment (and an optional .env file).
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
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	ServiceToken   string // shared secret the gateway presents (GAME_SERVICE_TOKEN)

	StoreDriver string
	DatabaseURL string

	PaymentGatewayURL   string
	PaymentGatewayToken string
	PaymentTimeout      time.Duration
	PaymentRPS          float64
	PaymentBurst        int

	JoinableWindow time.Duration

	SyncServiceURL     string
	UserSyncInterval   time.Duration
	SettlementInterval time.Duration
	LifecycleInterval  time.Duration

	R2 R2Config

	LogLevel  string
	LogFormat string
}

// R2Config holds Cloudflare R2 credentials. Storage is disabled when Bucket is empty.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

func (r R2Config) Enabled() bool {
	return r.Bucket != "" && r.AccountID != ""
}

// Load reads .env (if present) and then the process environment.
// The bool result reports whether a .env file was found.
func Load() (*Config, bool, error) {
	envFileLoaded := godotenv.Load() == nil

	cfg := &Config{
		Port:                getEnv("PORT", "5200"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		ServiceToken:        os.Getenv("GAME_SERVICE_TOKEN"),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		PaymentGatewayURL:   os.Getenv("PAYMENT_GATEWAY_URL"),
		PaymentGatewayToken: os.Getenv("PAYMENT_GATEWAY_TOKEN"),
		SyncServiceURL:      os.Getenv("SYNC_SERVICE_URL"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.PaymentTimeout, err = getDuration("PAYMENT_TIMEOUT", 15*time.Second); err != nil {
		return nil, envFileLoaded, err
	}
	if cfg.JoinableWindow, err = getDuration("JOINABLE_WINDOW", 24*time.Hour); err != nil {
		return nil, envFileLoaded, err
	}
	if cfg.UserSyncInterval, err = getDuration("USER_SYNC_INTERVAL", time.Minute); err != nil {
		return nil, envFileLoaded, err
	}
	if cfg.SettlementInterval, err = getDuration("SETTLEMENT_INTERVAL", 30*time.Second); err != nil {
		return nil, envFileLoaded, err
	}
	if cfg.LifecycleInterval, err = getDuration("LIFECYCLE_INTERVAL", time.Minute); err != nil {
		return nil, envFileLoaded, err
	}
	if cfg.PaymentRPS, err = getFloat("PAYMENT_RPS", 20); err != nil {
		return nil, envFileLoaded, err
	}
	if cfg.PaymentBurst, err = getInt("PAYMENT_BURST", 5); err != nil {
		return nil, envFileLoaded, err
	}

	return cfg, envFileLoaded, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ServiceToken == "" {
		errs = append(errs, errors.New("GAME_SERVICE_TOKEN is required"))
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}
	if c.PaymentGatewayURL == "" {
		errs = append(errs, errors.New("PAYMENT_GATEWAY_URL is required"))
	}
	if c.PaymentTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be positive"))
	}
	if c.PaymentRPS <= 0 {
		errs = append(errs, errors.New("PAYMENT_RPS must be positive"))
	}
	if c.PaymentBurst <= 0 {
		errs = append(errs, errors.New("PAYMENT_BURST must be positive"))
	}
	if c.JoinableWindow <= 0 {
		errs = append(errs, errors.New("JOINABLE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, v, err)
	}
	return f, nil
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
