// Package http exposes the orchestrator's REST surface: the saga endpoint,
// health probes, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/saga"
	apperrors "github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/errors"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/httputil"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/validator"
)

// Defaults applied when the client omits optional payment fields.
const (
	defaultCurrency      = "CAD"
	defaultPaymentMethod = "credit_card"
)

// SagaHandler handles HTTP requests for the order saga.
type SagaHandler struct {
	orchestrator *saga.Orchestrator
	logger       *slog.Logger
}

// NewSagaHandler creates a new saga HTTP handler.
func NewSagaHandler(orch *saga.Orchestrator, logger *slog.Logger) *SagaHandler {
	return &SagaHandler{orchestrator: orch, logger: logger}
}

// --- Request DTOs ---

// PlaceOrderRequest is the JSON request body for placing an order.
// TotalAmount stays raw JSON: clients send numbers, quoted numbers, or
// garbage, and the sanitization rules differ for absent versus invalid.
type PlaceOrderRequest struct {
	UserID        int64              `json:"user_id" validate:"required,gt=0"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount   json.RawMessage    `json:"total_amount"`
	Currency      string             `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod string             `json:"payment_method"`
}

// OrderItemRequest represents a single item in the place-order request.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// --- Handlers ---

// PlaceOrder handles POST /saga/order: it runs the whole saga synchronously
// and answers with the terminal result. A compensated saga is a 500 with a
// generic message; downstream error details stay in the logs.
func (h *SagaHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	// The saga must survive a client disconnect: once started, forward steps
	// and compensation run to completion against the downstream services.
	// Context values (trace, correlation id) carry over; cancellation does not.
	ctx := context.WithoutCancel(r.Context())

	data := toOrderData(&req)
	result := h.orchestrator.PlaceOrder(ctx, data)

	if !result.Success {
		// The terminal result still ships alongside the error: the client
		// needs the order id of a compensated saga for support follow-up.
		appErr := apperrors.SagaFailed()
		httputil.WriteJSON(w, appErr.Status, httputil.Response{
			Data:  result,
			Error: &httputil.ErrorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// toOrderData maps the validated request onto the saga input, applying
// defaults and coercing the declared amount.
func toOrderData(req *PlaceOrderRequest) *domain.OrderData {
	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	method := req.PaymentMethod
	if method == "" {
		method = defaultPaymentMethod
	}

	return &domain.OrderData{
		UserID:        req.UserID,
		Items:         items,
		TotalAmount:   coerceAmount(req.TotalAmount),
		Currency:      currency,
		PaymentMethod: method,
	}
}

// coerceAmount turns the raw total_amount field into the saga's declared
// amount. Absent (or JSON null) means "not declared" and returns nil; any
// present but non-numeric value coerces to zero, which downstream amount
// sanitization replaces with the minimum charge.
func coerceAmount(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	// Quoted numbers count as declared values.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, perr := strconv.ParseFloat(s, 64); perr == nil {
			return &parsed
		}
	}

	zero := 0.0
	return &zero
}
