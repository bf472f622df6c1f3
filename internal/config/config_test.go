package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KLARNA_BASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KLARNA_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, ":8082", cfg.OrderSvcAddr)
	assert.Equal(t, "https://api.playground.klarna.com", cfg.Klarna.BaseURL)
	assert.Equal(t, "USD", cfg.Klarna.Currency)
	assert.Equal(t, 10*time.Second, cfg.Klarna.Timeout)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KLARNA_BASE_URL", "https://klarna.test/")
	t.Setenv("KLARNA_TIMEOUT", "3s")
	t.Setenv("KLARNA_MAX_RETRIES", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")

	cfg := Load()

	assert.Equal(t, "https://klarna.test", cfg.Klarna.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Klarna.Timeout)
	assert.Equal(t, 5, cfg.Klarna.MaxRetries)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestValidatePayments(t *testing.T) {
	var cfg Config
	err := cfg.ValidatePayments()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KLARNA_API_USERNAME")
	assert.Contains(t, err.Error(), "KLARNA_NOTIFICATION_URL")

	cfg.Klarna = Klarna{
		Username:        "PK_test",
		ConfirmationURL: "https://shop.test/confirmation",
		NotificationURL: "https://shop.test/orders/webhook",
	}
	assert.NoError(t, cfg.ValidatePayments())
}
