package saga

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/event"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/logger"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/tracing"
)

var (
	sagasStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saga_orchestrations_started_total",
		Help: "Number of order sagas started.",
	})
	sagasFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_orchestrations_finished_total",
		Help: "Number of order sagas finished, by outcome.",
	}, []string{"outcome"})
	sagaDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "saga_orchestration_duration_seconds",
		Help:    "End-to-end duration of order sagas.",
		Buckets: prometheus.DefBuckets,
	})
)

// Orchestrator builds and runs one saga state machine per order request.
// It owns the shared pieces (resolver, executor, timeouts, event producer);
// per-saga state lives in the Machine it creates.
type Orchestrator struct {
	exec     StepExecutor
	resolver *routing.Resolver
	timeouts Timeouts
	events   *event.Producer
	logger   *slog.Logger
}

// NewOrchestrator creates the saga orchestrator. events may be nil when
// Kafka is not configured; lifecycle events are then skipped.
func NewOrchestrator(exec StepExecutor, resolver *routing.Resolver, timeouts Timeouts, events *event.Producer, l *slog.Logger) *Orchestrator {
	return &Orchestrator{
		exec:     exec,
		resolver: resolver,
		timeouts: timeouts,
		events:   events,
		logger:   l,
	}
}

// PlaceOrder runs the full saga for one order synchronously and returns its
// terminal result. The returned result always carries a terminal status;
// errors inside the saga surface as a failed result, never as a Go error.
func (o *Orchestrator) PlaceOrder(ctx context.Context, data *domain.OrderData) domain.SagaResult {
	ctx, span := tracing.Tracer("saga").Start(ctx, "saga.place_order",
		trace.WithAttributes(attribute.Int64("order.user_id", data.UserID)),
	)
	defer span.End()

	l := logger.WithContext(ctx, o.logger)
	l.InfoContext(ctx, "saga started",
		slog.Int64("user_id", data.UserID),
		slog.Int("item_count", len(data.Items)),
	)
	sagasStarted.Inc()
	start := time.Now()

	machine := NewMachine(
		NewOrderHandler(o.exec, o.resolver, o.timeouts, l),
		NewStockHandler(o.exec, o.resolver, o.timeouts, l),
		NewPaymentHandler(o.exec, o.resolver, o.timeouts, l),
		data,
		l,
	)
	result := machine.Run(ctx)

	elapsed := time.Since(start)
	sagaDuration.Observe(elapsed.Seconds())
	span.SetAttributes(
		attribute.Int64("order.id", result.OrderID),
		attribute.Bool("saga.success", result.Success),
	)

	if result.Success {
		sagasFinished.WithLabelValues("completed").Inc()
		l.InfoContext(ctx, "saga completed",
			slog.Int64("order_id", result.OrderID),
			slog.Duration("duration", elapsed),
		)
	} else {
		sagasFinished.WithLabelValues("compensated").Inc()
		l.WarnContext(ctx, "saga failed and compensated",
			slog.Int64("order_id", result.OrderID),
			slog.Duration("duration", elapsed),
		)
	}

	o.events.SagaFinished(ctx, data, result)
	return result
}
