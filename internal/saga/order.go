package saga

import (
	"context"
	"log/slog"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/executor"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
)

// Accepted aliases for the order identifier in create-order responses,
// in preference order.
var orderIDAliases = []string{"order_id", "id"}

// OrderHandler creates the order and, on compensation, deletes it.
type OrderHandler struct {
	exec     StepExecutor
	resolver *routing.Resolver
	timeouts Timeouts
	logger   *slog.Logger
}

// NewOrderHandler creates the order step handler.
func NewOrderHandler(exec StepExecutor, resolver *routing.Resolver, timeouts Timeouts, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{exec: exec, resolver: resolver, timeouts: timeouts, logger: logger}
}

// Forward creates the order and captures its identifier. Order creation is
// the saga's first step: on failure there is nothing to compensate, so the
// saga terminates directly.
func (h *OrderHandler) Forward(ctx context.Context, data *domain.OrderData) domain.StepOutcome {
	cands := h.resolver.Resolve(routing.OpCreateOrder, routing.Input{
		UserID: data.UserID,
		Items:  data.Items,
	})

	res := h.exec.Execute(ctx, cands, h.timeouts.Order)
	if !res.OK {
		h.logger.ErrorContext(ctx, "order creation failed",
			slog.Int64("user_id", data.UserID),
			slog.String("detail", res.Message),
		)
		return domain.Fail(domain.StateCompleted)
	}

	orderID, ok := executor.IntField(res.Data, orderIDAliases...)
	if !ok {
		// A 2xx without an order id leaves the saga unable to reference the
		// order downstream; treat it as a failed creation.
		h.logger.ErrorContext(ctx, "order service returned no order id",
			slog.Int64("user_id", data.UserID),
		)
		return domain.Fail(domain.StateCompleted)
	}

	data.OrderID = orderID
	h.logger.InfoContext(ctx, "order created", slog.Int64("order_id", orderID))
	return domain.Advance(domain.StateDecreasingStock)
}

// Compensate deletes the created order. This is the last compensating step:
// whatever the delete's own outcome, the saga terminates, because blocking
// here would leave the whole system stuck.
func (h *OrderHandler) Compensate(ctx context.Context, data *domain.OrderData) domain.StepOutcome {
	if data.OrderID == 0 {
		h.logger.WarnContext(ctx, "order compensation requested without an order id")
		return domain.Advance(domain.StateCompleted)
	}

	cands := h.resolver.Resolve(routing.OpDeleteOrder, routing.Input{OrderID: data.OrderID})

	res := h.exec.Execute(ctx, cands, h.timeouts.Order)
	if !res.OK {
		h.logger.ErrorContext(ctx, "order deletion failed, completing anyway",
			slog.Int64("order_id", data.OrderID),
			slog.String("detail", res.Message),
		)
	} else {
		h.logger.InfoContext(ctx, "order deleted", slog.Int64("order_id", data.OrderID))
	}

	return domain.Advance(domain.StateCompleted)
}
