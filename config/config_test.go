package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example,, ")
	t.Setenv("PAYMENT_TIMEOUT", "")
	t.Setenv("JOINABLE_WINDOW", "")
	t.Setenv("LIFECYCLE_INTERVAL", "")
	t.Setenv("SETTLEMENT_INTERVAL", "45s")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JoinableWindow)
	assert.Equal(t, time.Minute, cfg.LifecycleInterval)
	assert.Equal(t, 45*time.Second, cfg.SettlementInterval)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("PAYMENT_TIMEOUT", "soon")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		StoreDriver:    StoreDriverPostgres,
		PaymentTimeout: time.Second,
		PaymentRPS:     20,
		PaymentBurst:   5,
		JoinableWindow: time.Hour,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAME_SERVICE_TOKEN")
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "PAYMENT_GATEWAY_URL")

	cfg.ServiceToken = "secret"
	cfg.StoreDriver = StoreDriverMemory
	cfg.PaymentGatewayURL = "http://gateway"
	assert.NoError(t, cfg.Validate())

	cfg.StoreDriver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestValidateRateLimit(t *testing.T) {
	cfg := &Config{
		ServiceToken:      "secret",
		StoreDriver:       StoreDriverMemory,
		PaymentGatewayURL: "http://gateway",
		PaymentTimeout:    time.Second,
		JoinableWindow:    time.Hour,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_RPS")
	assert.Contains(t, err.Error(), "PAYMENT_BURST")

	cfg.PaymentRPS = 0.5
	cfg.PaymentBurst = 1
	assert.NoError(t, cfg.Validate())
}

func TestR2Enabled(t *testing.T) {
	assert.False(t, R2Config{}.Enabled())
	assert.True(t, R2Config{AccountID: "acc", Bucket: "kyc"}.Enabled())
}
