package saga

import (
	"context"
	"log/slog"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/executor"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
)

// Accepted aliases for the payment identifier in create-payment responses,
// in preference order.
var paymentIDAliases = []string{"id", "payment_id"}

// PaymentHandler submits the payment and, on compensation, attempts to
// cancel or refund it.
type PaymentHandler struct {
	exec     StepExecutor
	resolver *routing.Resolver
	timeouts Timeouts
	logger   *slog.Logger
}

// NewPaymentHandler creates the payment step handler.
func NewPaymentHandler(exec StepExecutor, resolver *routing.Resolver, timeouts Timeouts, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{exec: exec, resolver: resolver, timeouts: timeouts, logger: logger}
}

// Forward computes a safe amount and submits the payment. Payment is the
// final forward step: success completes the saga, failure starts the full
// compensation chain.
func (h *PaymentHandler) Forward(ctx context.Context, data *domain.OrderData) domain.StepOutcome {
	amount := domain.PaymentAmount(data.TotalAmount, data.Items)

	cands := h.resolver.Resolve(routing.OpCreatePayment, routing.Input{
		UserID:   data.UserID,
		Items:    data.Items,
		OrderID:  data.OrderID,
		Amount:   amount,
		Currency: data.Currency,
		Method:   data.PaymentMethod,
	})

	res := h.exec.Execute(ctx, cands, h.timeouts.Payment)
	if !res.OK {
		h.logger.ErrorContext(ctx, "payment creation failed",
			slog.Int64("order_id", data.OrderID),
			slog.Float64("amount", amount),
			slog.String("detail", res.Message),
		)
		return domain.Fail(domain.StateCancellingPayment)
	}

	// Some payment backends return no identifier; compensation then becomes
	// a no-op, which is the documented behavior, not an error.
	if pid, ok := executor.StringField(res.Data, paymentIDAliases...); ok {
		data.PaymentID = pid
	}

	h.logger.InfoContext(ctx, "payment created",
		slog.Int64("order_id", data.OrderID),
		slog.String("payment_id", data.PaymentID),
		slog.Float64("amount", amount),
	)
	return domain.Advance(domain.StateCompleted)
}

// Compensate cancels or refunds the payment when one was captured. A backend
// without any cancel capability makes this a logged no-op; either way the
// saga moves on to stock compensation.
func (h *PaymentHandler) Compensate(ctx context.Context, data *domain.OrderData) domain.StepOutcome {
	if data.PaymentID == "" {
		h.logger.InfoContext(ctx, "no payment captured, nothing to cancel",
			slog.Int64("order_id", data.OrderID),
		)
		return domain.Advance(domain.StateCancellingStock)
	}

	cands := h.resolver.Resolve(routing.OpCancelPayment, routing.Input{
		OrderID:   data.OrderID,
		PaymentID: data.PaymentID,
	})
	if len(cands) == 0 {
		h.logger.WarnContext(ctx, "payment backend exposes no cancel endpoint",
			slog.String("payment_id", data.PaymentID),
		)
		return domain.Advance(domain.StateCancellingStock)
	}

	res := h.exec.Execute(ctx, cands, h.timeouts.Payment)
	if !res.OK {
		h.logger.ErrorContext(ctx, "payment cancellation failed, continuing compensation",
			slog.String("payment_id", data.PaymentID),
			slog.String("detail", res.Message),
		)
	} else {
		h.logger.InfoContext(ctx, "payment cancelled", slog.String("payment_id", data.PaymentID))
	}

	return domain.Advance(domain.StateCancellingStock)
}
