// Package config holds the orchestrator's environment-driven configuration.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/saga"
	pkgconfig "github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/config"
)

// Config holds all configuration for the saga orchestrator.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SAGA_HTTP_PORT" envDefault:"8010"`

	// Downstream routing. The gateway is mandatory; direct service URLs are
	// optional shortcuts tried according to DIRECT_ROUTING_FIRST.
	GatewayURL        string `env:"API_GATEWAY_URL" envDefault:"http://api-gateway:8080"`
	OrderServiceURL   string `env:"ORDER_SERVICE_URL"`
	StockServiceURL   string `env:"STOCK_SERVICE_URL"`
	PaymentServiceURL string `env:"PAYMENT_SERVICE_URL"`
	DirectFirst       bool   `env:"DIRECT_ROUTING_FIRST" envDefault:"false"`

	// Per-step saga timeouts (seconds). Each downstream call gets its own
	// context.WithTimeout so a slow service cannot stall the saga forever.
	SagaOrderTimeout   int `env:"SAGA_ORDER_TIMEOUT" envDefault:"5"`
	SagaStockTimeout   int `env:"SAGA_STOCK_TIMEOUT" envDefault:"5"`
	SagaPaymentTimeout int `env:"SAGA_PAYMENT_TIMEOUT" envDefault:"10"`

	// HTTP client
	HTTPClientTimeout int `env:"HTTP_CLIENT_TIMEOUT_SECONDS" envDefault:"15"`

	// Circuit breaker settings for downstream calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Kafka. Empty brokers disable event publishing entirely.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load saga config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.GatewayURL == "" {
		return fmt.Errorf("API_GATEWAY_URL is required")
	}
	for name, rawURL := range map[string]string{
		"API_GATEWAY_URL":     c.GatewayURL,
		"ORDER_SERVICE_URL":   c.OrderServiceURL,
		"STOCK_SERVICE_URL":   c.StockServiceURL,
		"PAYMENT_SERVICE_URL": c.PaymentServiceURL,
	} {
		if rawURL == "" {
			continue // direct URLs are optional
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	for name, secs := range map[string]int{
		"SAGA_ORDER_TIMEOUT":   c.SagaOrderTimeout,
		"SAGA_STOCK_TIMEOUT":   c.SagaStockTimeout,
		"SAGA_PAYMENT_TIMEOUT": c.SagaPaymentTimeout,
	} {
		if secs < 1 {
			return fmt.Errorf("%s must be at least 1 second, got %d", name, secs)
		}
	}
	return nil
}

// RoutingConfig maps the configuration onto the endpoint resolver.
func (c *Config) RoutingConfig() routing.Config {
	return routing.Config{
		GatewayURL:        c.GatewayURL,
		OrderServiceURL:   c.OrderServiceURL,
		StockServiceURL:   c.StockServiceURL,
		PaymentServiceURL: c.PaymentServiceURL,
		DirectFirst:       c.DirectFirst,
	}
}

// SagaTimeouts returns the per-step call budgets.
func (c *Config) SagaTimeouts() saga.Timeouts {
	return saga.Timeouts{
		Order:   time.Duration(c.SagaOrderTimeout) * time.Second,
		Stock:   time.Duration(c.SagaStockTimeout) * time.Second,
		Payment: time.Duration(c.SagaPaymentTimeout) * time.Second,
	}
}
