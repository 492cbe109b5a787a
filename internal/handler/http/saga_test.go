package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/executor"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/saga"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/health"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/httpclient"
)

// newTestRouter wires the full HTTP stack against a stub downstream gateway.
// paymentStatus controls the payment service's response so tests can force a
// compensated saga.
func newTestRouter(t *testing.T, paymentStatus int) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /order-api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"order_id": 7}`)
	})
	mux.HandleFunc("DELETE /order-api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("PUT /store-manager-api/stocks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /payment-api/payments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(paymentStatus)
		_, _ = io.WriteString(w, `{"id": "pay-1"}`)
	})
	downstream := httptest.NewServer(mux)
	t.Cleanup(downstream.Close)

	return routerForGateway(t, downstream.URL)
}

// routerForGateway wires the real executor/resolver/orchestrator stack
// against the given downstream base URL.
func routerForGateway(t *testing.T, gatewayURL string) http.Handler {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := executor.New(httpclient.New(httpclient.Config{
		Timeout:         2 * time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 10,
	}), l)
	resolver := routing.NewResolver(routing.Config{GatewayURL: gatewayURL})
	orch := saga.NewOrchestrator(exec, resolver, saga.Timeouts{
		Order:   time.Second,
		Stock:   time.Second,
		Payment: time.Second,
	}, nil, l)

	return NewRouter(orch, health.NewHandler(), l)
}

func postOrder(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/saga/order", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPlaceOrderSuccess(t *testing.T) {
	router := newTestRouter(t, http.StatusCreated)

	rec := postOrder(router, `{"user_id": 3, "items": [{"product_id": 1, "quantity": 2}], "total_amount": 19.99}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			OrderID int64  `json:"order_id"`
			Success bool   `json:"success"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Data.OrderID)
	assert.True(t, resp.Data.Success)
	assert.Equal(t, "OK", resp.Data.Status)
}

func TestPlaceOrderSagaFailure(t *testing.T) {
	router := newTestRouter(t, http.StatusPaymentRequired)

	rec := postOrder(router, `{"user_id": 3, "items": [{"product_id": 1, "quantity": 2}]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Data struct {
			OrderID int64 `json:"order_id"`
			Success bool  `json:"success"`
		} `json:"data"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SAGA_FAILED", resp.Error.Code)
	assert.Equal(t, "the order could not be completed", resp.Error.Message)
	assert.False(t, resp.Data.Success)
	// The order was created then compensated; its id is still reported.
	assert.Equal(t, int64(7), resp.Data.OrderID)
	// No downstream detail leaks into the client-facing message.
	assert.NotContains(t, resp.Error.Message, "402")
}

func TestPlaceOrderSurvivesClientDisconnect(t *testing.T) {
	var deletes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /order-api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"order_id": 7}`)
	})
	mux.HandleFunc("PUT /store-manager-api/stocks", func(w http.ResponseWriter, r *http.Request) {
		// The client goes away while the stock call is in flight.
		cancel()
		w.WriteHeader(http.StatusConflict)
	})
	mux.HandleFunc("DELETE /order-api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		deletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	downstream := httptest.NewServer(mux)
	t.Cleanup(downstream.Close)

	router := routerForGateway(t, downstream.URL)

	req := httptest.NewRequest(http.MethodPost, "/saga/order",
		strings.NewReader(`{"user_id": 3, "items": [{"product_id": 1, "quantity": 2}]}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// The disconnect does not abort the saga: compensation still deletes
	// the created order.
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int32(1), deletes.Load())
}

func TestPlaceOrderValidation(t *testing.T) {
	router := newTestRouter(t, http.StatusCreated)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing user", `{"items": [{"product_id": 1, "quantity": 1}]}`, "VALIDATION_ERROR"},
		{"empty items", `{"user_id": 3, "items": []}`, "VALIDATION_ERROR"},
		{"zero quantity", `{"user_id": 3, "items": [{"product_id": 1, "quantity": 0}]}`, "VALIDATION_ERROR"},
		{"bad currency", `{"user_id": 3, "items": [{"product_id": 1, "quantity": 1}], "currency": "CADX"}`, "VALIDATION_ERROR"},
		{"malformed json", `{"user_id": `, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postOrder(router, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestPlaceOrderRejectsNonJSON(t *testing.T) {
	router := newTestRouter(t, http.StatusCreated)

	req := httptest.NewRequest(http.MethodPost, "/saga/order", strings.NewReader("user_id=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, http.StatusCreated)

	for _, path := range []string{"/health/live", "/health/ready", "/health-check"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"absent", "", nil},
		{"null", "null", nil},
		{"number", "19.99", ptr(19.99)},
		{"quoted number", `"12.5"`, ptr(12.5)},
		{"garbage string", `"abc"`, ptr(0.0)},
		{"object", `{"v": 1}`, ptr(0.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.raw != "" {
				raw = json.RawMessage(tt.raw)
			}
			got := coerceAmount(raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func ptr(f float64) *float64 { return &f }
