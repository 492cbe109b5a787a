package domain

// SagaState enumerates the states of the order saga.
//
// Forward path:      CreatingOrder -> DecreasingStock -> CreatingPayment -> Completed.
// Compensation path: a payment failure walks CancellingPayment ->
// CancellingStock -> CancellingOrder -> Completed; a stock failure jumps
// straight to CancellingOrder (nothing was decremented); an order failure
// terminates immediately (nothing to undo). Completed is the sole terminal
// state and no non-terminal state is ever revisited.
type SagaState int

const (
	StateCreatingOrder SagaState = iota
	StateDecreasingStock
	StateCreatingPayment
	StateCancellingPayment
	StateCancellingStock
	StateCancellingOrder
	StateCompleted
)

var stateNames = map[SagaState]string{
	StateCreatingOrder:     "creating_order",
	StateDecreasingStock:   "decreasing_stock",
	StateCreatingPayment:   "creating_payment",
	StateCancellingPayment: "cancelling_payment",
	StateCancellingStock:   "cancelling_stock",
	StateCancellingOrder:   "cancelling_order",
	StateCompleted:         "completed",
}

func (s SagaState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Terminal reports whether the state machine stops at this state.
func (s SagaState) Terminal() bool {
	return s == StateCompleted
}

// Compensating reports whether this state belongs to the backward path.
func (s SagaState) Compensating() bool {
	switch s {
	case StateCancellingPayment, StateCancellingStock, StateCancellingOrder:
		return true
	}
	return false
}

// StepOutcome is what a handler action returns: the next saga state plus
// whether this transition records a failure on the saga. Advance and Fail
// produce the same shape; the distinction is the saga-level error flag, not
// a different state type.
type StepOutcome struct {
	Next   SagaState
	Failed bool
}

// Advance selects the next state after a successful action.
func Advance(next SagaState) StepOutcome {
	return StepOutcome{Next: next}
}

// Fail selects the next state after a failed action and marks the saga as
// failed. Compensating actions never use Fail: their own errors are logged
// and swallowed so the saga always reaches Completed.
func Fail(next SagaState) StepOutcome {
	return StepOutcome{Next: next, Failed: true}
}
