package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, "http://api-gateway:8080", cfg.GatewayURL)
	assert.False(t, cfg.DirectFirst)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Second, cfg.SagaTimeouts().Payment)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_GATEWAY_URL", "http://gw.internal:9000")
	t.Setenv("ORDER_SERVICE_URL", "http://orders:8003")
	t.Setenv("DIRECT_ROUTING_FIRST", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SAGA_STOCK_TIMEOUT", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.DirectFirst)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.SagaTimeouts().Stock)

	rc := cfg.RoutingConfig()
	assert.Equal(t, "http://gw.internal:9000", rc.GatewayURL)
	assert.Equal(t, "http://orders:8003", rc.OrderServiceURL)
	assert.Empty(t, rc.StockServiceURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SAGA_HTTP_PORT", "70000"},
		{"bad gateway url", "API_GATEWAY_URL", "::not-a-url"},
		{"bad direct url", "PAYMENT_SERVICE_URL", "::bad"},
		{"zero timeout", "SAGA_ORDER_TIMEOUT", "0"},
		{"bad sample rate", "OTEL_SAMPLE_RATE", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
