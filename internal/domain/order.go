package domain

// OrderItem is a single ordered line item.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderData is the input aggregate for one saga run. It is owned exclusively
// by the running saga instance and is immutable once the saga starts, except
// for the identifiers appended by completed steps (OrderID, PaymentID).
type OrderData struct {
	UserID        int64
	Items         []OrderItem
	TotalAmount   *float64 // nil when the client declared no amount
	Currency      string
	PaymentMethod string

	// Appended by completed steps.
	OrderID   int64  // 0 until order creation succeeds
	PaymentID string // empty until payment creation succeeds
}

// Saga result status messages. Failure text is deliberately generic: raw
// downstream errors never reach the client.
const (
	StatusOK     = "OK"
	StatusFailed = "an error occurred while placing the order"
)

// SagaResult is the output aggregate, built exactly once when the state
// machine reaches Completed.
type SagaResult struct {
	OrderID int64  `json:"order_id"`
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// NewSagaResult builds the terminal result for a finished saga.
func NewSagaResult(orderID int64, failed bool) SagaResult {
	if failed {
		return SagaResult{OrderID: orderID, Success: false, Status: StatusFailed}
	}
	return SagaResult{OrderID: orderID, Success: true, Status: StatusOK}
}
