package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestPaymentAmount(t *testing.T) {
	tests := []struct {
		name     string
		declared *float64
		items    []OrderItem
		want     float64
	}{
		{
			name:     "absent amount derives from quantities",
			declared: nil,
			items:    []OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 3}},
			want:     5.0,
		},
		{
			name:     "absent amount with no items falls back to minimum",
			declared: nil,
			items:    nil,
			want:     1.0,
		},
		{
			name:     "absent amount with zero quantities falls back to minimum",
			declared: nil,
			items:    []OrderItem{{ProductID: 1, Quantity: 0}},
			want:     1.0,
		},
		{
			name:     "negative amount replaced by minimum",
			declared: f(-5),
			items:    []OrderItem{{ProductID: 1, Quantity: 2}},
			want:     1.0,
		},
		{
			name:     "zero amount replaced by minimum",
			declared: f(0),
			items:    []OrderItem{{ProductID: 1, Quantity: 2}},
			want:     1.0,
		},
		{
			name:     "valid amount used as-is",
			declared: f(42),
			items:    []OrderItem{{ProductID: 1, Quantity: 2}},
			want:     42.0,
		},
		{
			name:     "fractional amount preserved",
			declared: f(19.99),
			items:    nil,
			want:     19.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PaymentAmount(tt.declared, tt.items), 1e-9)
		})
	}
}

func TestSagaState_String(t *testing.T) {
	assert.Equal(t, "creating_order", StateCreatingOrder.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "invalid", SagaState(99).String())
}

func TestSagaState_Terminal(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.False(t, StateCancellingOrder.Terminal())
}

func TestStepOutcome(t *testing.T) {
	out := Advance(StateDecreasingStock)
	assert.Equal(t, StateDecreasingStock, out.Next)
	assert.False(t, out.Failed)

	out = Fail(StateCancellingOrder)
	assert.Equal(t, StateCancellingOrder, out.Next)
	assert.True(t, out.Failed)
}

func TestNewSagaResult(t *testing.T) {
	ok := NewSagaResult(7, false)
	assert.Equal(t, SagaResult{OrderID: 7, Success: true, Status: StatusOK}, ok)

	failed := NewSagaResult(9, true)
	assert.Equal(t, int64(9), failed.OrderID)
	assert.False(t, failed.Success)
	assert.Equal(t, StatusFailed, failed.Status)
}
