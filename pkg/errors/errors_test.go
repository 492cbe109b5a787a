package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	// The classification sentinel is part of the printed chain.
	err := InvalidInput("user id is required")
	assert.Equal(t, "INVALID_INPUT: user id is required: invalid input", err.Error())

	bare := &AppError{Code: "SAGA_FAILED", Message: "the order could not be completed"}
	assert.Equal(t, "SAGA_FAILED: the order could not be completed", bare.Error())

	wrapped := Internal(errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAppError_Unwrap(t *testing.T) {
	err := SagaFailed()
	assert.True(t, errors.Is(err, ErrSagaFailed))

	nf := NotFound("order", "42")
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.Equal(t, `order with id 42 not found`, nf.Message)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", ServiceUnavailable("gateway down"), http.StatusServiceUnavailable},
		{"wrapped app error", fmt.Errorf("context: %w", InvalidInput("bad")), http.StatusBadRequest},
		{"sentinel not found", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
		{"saga failed", SagaFailed(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
