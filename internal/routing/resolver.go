// Package routing turns logical saga operations into ordered lists of
// endpoint candidates. Downstream deployments drift: the same logical
// operation may live behind different verbs, different paths, and either the
// API gateway or a direct service address. Centralizing the fallback policy
// here keeps it declarative and testable, instead of scattering hardcoded
// attempts across the step handlers.
package routing

import (
	"fmt"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
)

// Operation identifies a logical remote operation of the saga.
type Operation string

const (
	OpCreateOrder   Operation = "create_order"
	OpDeleteOrder   Operation = "delete_order"
	OpDecreaseStock Operation = "decrease_stock"
	OpIncreaseStock Operation = "increase_stock"
	OpCreatePayment Operation = "create_payment"
	OpCancelPayment Operation = "cancel_payment"
)

// Candidate is one concrete way to invoke a logical operation. The position
// in the resolved list encodes preference.
type Candidate struct {
	Method  string
	URL     string
	Payload any // nil for bodyless requests
}

// Gateway path prefixes, mirroring the KrakenD route configuration.
const (
	gatewayOrderPrefix   = "/order-api"
	gatewayStockPrefix   = "/store-manager-api"
	gatewayPaymentPrefix = "/payment-api"
)

// Config holds the static routing surface: the gateway base URL, optional
// direct-to-service base URLs, and whether direct routes are preferred over
// the gateway.
type Config struct {
	GatewayURL        string
	OrderServiceURL   string // optional; empty means gateway-only
	StockServiceURL   string // optional
	PaymentServiceURL string // optional
	DirectFirst       bool
}

// Input carries the per-operation values interpolated into candidate URLs
// and payloads.
type Input struct {
	UserID    int64
	Items     []domain.OrderItem
	OrderID   int64
	PaymentID string
	Amount    float64
	Currency  string
	Method    string
}

// Resolver produces endpoint candidates for logical operations. It is a pure
// function of its configuration: no I/O, and its only failure mode is an
// empty candidate list.
type Resolver struct {
	cfg Config
}

// NewResolver creates a resolver for the given routing configuration.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the ordered candidates for the given operation. An empty
// result signals either misconfiguration or, for payment cancellation, a
// backend with no cancel capability.
func (r *Resolver) Resolve(op Operation, in Input) []Candidate {
	switch op {
	case OpCreateOrder:
		return r.createOrder(in)
	case OpDeleteOrder:
		return r.deleteOrder(in)
	case OpDecreaseStock:
		return r.adjustStock(in, "-", "decrease")
	case OpIncreaseStock:
		return r.adjustStock(in, "+", "increase")
	case OpCreatePayment:
		return r.createPayment(in)
	case OpCancelPayment:
		return r.cancelPayment(in)
	default:
		return nil
	}
}

// bases returns the ordered base URLs for a service: the gateway route (with
// its path prefix) and the direct route when configured. The gateway comes
// first unless direct-first routing is set.
func (r *Resolver) bases(prefix, directURL string) []string {
	gateway := r.cfg.GatewayURL + prefix
	if directURL == "" {
		return []string{gateway}
	}
	if r.cfg.DirectFirst {
		return []string{directURL, gateway}
	}
	return []string{gateway, directURL}
}

// createOrder is the saga's one mandatory step with no fallback routing: a
// single candidate on the preferred base. Endpoint-shape ambiguity is not
// tolerated for order creation.
func (r *Resolver) createOrder(in Input) []Candidate {
	base := r.bases(gatewayOrderPrefix, r.cfg.OrderServiceURL)[0]
	return []Candidate{
		{
			Method: "POST",
			URL:    base + "/orders",
			Payload: map[string]any{
				"user_id": in.UserID,
				"items":   in.Items,
			},
		},
	}
}

func (r *Resolver) deleteOrder(in Input) []Candidate {
	var out []Candidate
	for _, base := range r.bases(gatewayOrderPrefix, r.cfg.OrderServiceURL) {
		out = append(out, Candidate{
			Method: "DELETE",
			URL:    fmt.Sprintf("%s/orders/%d", base, in.OrderID),
		})
	}
	return out
}

// adjustStock covers both directions of the stock batch operation. Each base
// exposes the canonical batch route (operation flag in the payload) and a
// legacy dedicated route.
func (r *Resolver) adjustStock(in Input, opFlag, dedicated string) []Candidate {
	var out []Candidate
	for _, base := range r.bases(gatewayStockPrefix, r.cfg.StockServiceURL) {
		out = append(out,
			Candidate{
				Method: "PUT",
				URL:    base + "/stocks",
				Payload: map[string]any{
					"items":     in.Items,
					"operation": opFlag,
				},
			},
			Candidate{
				Method: "POST",
				URL:    base + "/stocks/" + dedicated,
				Payload: map[string]any{
					"order_id": in.OrderID,
					"items":    in.Items,
				},
			},
		)
	}
	return out
}

func (r *Resolver) createPayment(in Input) []Candidate {
	payload := map[string]any{
		"order_id": in.OrderID,
		"amount":   in.Amount,
		"currency": in.Currency,
		"method":   in.Method,
		"user_id":  in.UserID,
		"items":    in.Items,
	}

	var out []Candidate
	for _, base := range r.bases(gatewayPaymentPrefix, r.cfg.PaymentServiceURL) {
		out = append(out,
			Candidate{Method: "POST", URL: base + "/payments", Payload: payload},
			// Legacy singular route and PUT shape seen in older deployments.
			Candidate{Method: "POST", URL: base + "/payment", Payload: payload},
			Candidate{Method: "PUT", URL: base + "/payments", Payload: payload},
		)
	}
	return out
}

// cancelPayment prefers payment-id routes and falls back to order-id routes.
// With neither identifier the backend has no cancel capability and the
// result is empty: permanently unresolvable, not an error.
func (r *Resolver) cancelPayment(in Input) []Candidate {
	var out []Candidate
	for _, base := range r.bases(gatewayPaymentPrefix, r.cfg.PaymentServiceURL) {
		if in.PaymentID != "" {
			out = append(out,
				Candidate{Method: "POST", URL: fmt.Sprintf("%s/payments/%s/cancel", base, in.PaymentID)},
				Candidate{Method: "POST", URL: fmt.Sprintf("%s/payments/%s/refund", base, in.PaymentID)},
				Candidate{Method: "DELETE", URL: fmt.Sprintf("%s/payments/%s", base, in.PaymentID)},
			)
		}
		if in.OrderID != 0 {
			out = append(out,
				Candidate{Method: "POST", URL: fmt.Sprintf("%s/payments/cancel-by-order/%d", base, in.OrderID)},
				Candidate{Method: "POST", URL: fmt.Sprintf("%s/payments/refund-by-order/%d", base, in.OrderID)},
			)
		}
	}
	return out
}
