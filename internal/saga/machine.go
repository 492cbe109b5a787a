package saga

import (
	"context"
	"log/slog"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
)

// Machine walks one order saga from CreatingOrder to Completed. An instance
// is created per inbound request, runs synchronously on a single goroutine,
// and is discarded once it produces a result. State lives only here, in
// process memory: if the process dies mid-saga, in-flight state is lost and
// no automatic resume occurs. That is a documented limitation of this
// orchestrator, not an oversight.
type Machine struct {
	state  domain.SagaState
	data   *domain.OrderData
	failed bool

	order   Handler
	stock   Handler
	payment Handler

	logger *slog.Logger
}

// NewMachine creates a saga state machine over the given handlers, starting
// at CreatingOrder.
func NewMachine(order, stock, payment Handler, data *domain.OrderData, logger *slog.Logger) *Machine {
	return &Machine{
		state:   domain.StateCreatingOrder,
		data:    data,
		order:   order,
		stock:   stock,
		payment: payment,
		logger:  logger,
	}
}

// Run drives the transition table until the terminal state. Each reachable
// state maps to exactly one handler action; the full forward+compensate
// chain is at most six transitions, so the loop always terminates.
func (m *Machine) Run(ctx context.Context) domain.SagaResult {
	for !m.state.Terminal() {
		prev := m.state

		var out domain.StepOutcome
		switch m.state {
		case domain.StateCreatingOrder:
			out = m.order.Forward(ctx, m.data)
		case domain.StateDecreasingStock:
			out = m.stock.Forward(ctx, m.data)
		case domain.StateCreatingPayment:
			out = m.payment.Forward(ctx, m.data)
		case domain.StateCancellingPayment:
			out = m.payment.Compensate(ctx, m.data)
		case domain.StateCancellingStock:
			out = m.stock.Compensate(ctx, m.data)
		case domain.StateCancellingOrder:
			out = m.order.Compensate(ctx, m.data)
		default:
			// Unreachable with a correct transition table. Terminal backstop:
			// flag the saga and stop without attempting further compensation.
			m.logger.ErrorContext(ctx, "invalid saga state, forcing completion",
				slog.String("state", m.state.String()),
			)
			m.failed = true
			m.state = domain.StateCompleted
			continue
		}

		if out.Failed {
			m.failed = true
		}
		m.state = out.Next

		m.logger.DebugContext(ctx, "saga transition",
			slog.String("from", prev.String()),
			slog.String("to", m.state.String()),
			slog.Bool("failed", out.Failed),
		)
	}

	return domain.NewSagaResult(m.data.OrderID, m.failed)
}
