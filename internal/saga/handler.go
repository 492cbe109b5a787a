// Package saga drives the order saga: three step handlers (order, stock,
// payment), the state machine that walks the transition table, and the
// orchestrator that assembles a fresh machine per inbound request.
package saga

import (
	"context"
	"net/http"
	"time"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/executor"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
	apperrors "github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/errors"
)

// Handler is one saga step: a forward action and a compensating action.
// Both return the next saga state. Compensating actions must always advance
// regardless of their own outcome; their failures are logged and swallowed
// so the saga converges to Completed.
type Handler interface {
	Forward(ctx context.Context, data *domain.OrderData) domain.StepOutcome
	Compensate(ctx context.Context, data *domain.OrderData) domain.StepOutcome
}

// StepExecutor abstracts the executor for the handlers.
type StepExecutor interface {
	Execute(ctx context.Context, candidates []routing.Candidate, timeout time.Duration) executor.Result
}

// CircuitOpenFallback answers downstream calls while the circuit breaker is
// open. It surfaces as a service-unavailable error, which the executor
// classifies as a hard failure of the step, so the saga compensates instead
// of hammering an already-failing service through its candidate list.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("downstream service is temporarily unavailable, please retry after 30 seconds")
}

// Timeouts holds the per-operation call budgets. Payment gets the longest:
// it is the most critical call and the most expensive to abandon halfway.
type Timeouts struct {
	Order   time.Duration
	Stock   time.Duration
	Payment time.Duration
}

// DefaultTimeouts returns the standard per-call budgets.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Order:   5 * time.Second,
		Stock:   5 * time.Second,
		Payment: 10 * time.Second,
	}
}
