// Package app wires together all dependencies and runs the orchestrator.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/config"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/event"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/executor"
	handler "github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/handler/http"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/saga"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/health"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/httpclient"
	pkgkafka "github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/kafka"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/tracing"
)

// App holds the running service and its shutdown hooks. The orchestrator is
// deliberately stateless: no database, no cache. A saga lives exactly as
// long as the HTTP request that triggered it.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	producer       *pkgkafka.Producer // nil when Kafka is not configured
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "saga-orchestrator",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Kafka is optional: without brokers, lifecycle events are skipped.
	var producer *pkgkafka.Producer
	var eventProducer *event.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka disabled, saga events will not be published")
	}

	// HTTP client for downstream calls. MaxRetries stays at 0: the endpoint
	// candidate list is the only retry budget for saga steps, and transport
	// retries would re-issue side-effecting requests.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         time.Duration(cfg.HTTPClientTimeout) * time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 100,
	})

	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "saga-downstream",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(saga.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	resolver := routing.NewResolver(cfg.RoutingConfig())
	exec := executor.New(cbClient, logger)
	orchestrator := saga.NewOrchestrator(exec, resolver, cfg.SagaTimeouts(), eventProducer, logger)

	// Health checks. The orchestrator holds no critical state of its own;
	// downstream availability is probed lazily per saga, so only Kafka is
	// worth a readiness check, and a broken broker must not fail readiness.
	healthHandler := health.NewHandler()
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	router := handler.NewRouter(orchestrator, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // a saga may run a full compensation chain
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight sagas)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight requests. The budget exceeds the worst-case saga
	// (forward steps plus full compensation) so a shutdown mid-saga still
	// lets compensation finish instead of orphaning downstream state.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight saga spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
