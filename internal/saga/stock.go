package saga

import (
	"context"
	"log/slog"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
)

// StockHandler decreases inventory for the whole order as one batch and, on
// compensation, re-increments the same batch.
type StockHandler struct {
	exec     StepExecutor
	resolver *routing.Resolver
	timeouts Timeouts
	logger   *slog.Logger
}

// NewStockHandler creates the stock step handler.
func NewStockHandler(exec StepExecutor, resolver *routing.Resolver, timeouts Timeouts, logger *slog.Logger) *StockHandler {
	return &StockHandler{exec: exec, resolver: resolver, timeouts: timeouts, logger: logger}
}

// Forward decreases stock for every line item in one batch call. A failure
// jumps straight to cancelling the order: nothing was decremented, so stock
// compensation would be wrong here.
func (h *StockHandler) Forward(ctx context.Context, data *domain.OrderData) domain.StepOutcome {
	cands := h.resolver.Resolve(routing.OpDecreaseStock, routing.Input{
		OrderID: data.OrderID,
		Items:   data.Items,
	})

	res := h.exec.Execute(ctx, cands, h.timeouts.Stock)
	if !res.OK {
		h.logger.ErrorContext(ctx, "stock decrease failed",
			slog.Int64("order_id", data.OrderID),
			slog.String("detail", res.Message),
		)
		return domain.Fail(domain.StateCancellingOrder)
	}

	h.logger.InfoContext(ctx, "stock decreased",
		slog.Int64("order_id", data.OrderID),
		slog.Int("items", len(data.Items)),
	)
	return domain.Advance(domain.StateCreatingPayment)
}

// Compensate re-increments the batch. The saga proceeds to order
// cancellation regardless of the outcome.
func (h *StockHandler) Compensate(ctx context.Context, data *domain.OrderData) domain.StepOutcome {
	cands := h.resolver.Resolve(routing.OpIncreaseStock, routing.Input{
		OrderID: data.OrderID,
		Items:   data.Items,
	})

	res := h.exec.Execute(ctx, cands, h.timeouts.Stock)
	if !res.OK {
		h.logger.ErrorContext(ctx, "stock re-increment failed, continuing compensation",
			slog.Int64("order_id", data.OrderID),
			slog.String("detail", res.Message),
		)
	} else {
		h.logger.InfoContext(ctx, "stock re-incremented", slog.Int64("order_id", data.OrderID))
	}

	return domain.Advance(domain.StateCancellingOrder)
}
