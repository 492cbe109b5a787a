package domain

// MinimumChargeAmount is the fixed floor used when no usable amount can be
// derived. The payment service must never be asked to charge a non-positive
// or absent amount.
const MinimumChargeAmount = 1.0

// PaymentAmount computes a safe, strictly positive amount to charge.
//
// When no amount was declared, it derives one from the summed line-item
// quantities, falling back to MinimumChargeAmount when the sum is zero.
// A declared amount that is non-positive (which also covers non-numeric
// values coerced to zero by the request adapter) is replaced by the floor.
func PaymentAmount(declared *float64, items []OrderItem) float64 {
	if declared == nil {
		total := 0
		for _, item := range items {
			total += item.Quantity
		}
		if total > 0 {
			return float64(total)
		}
		return MinimumChargeAmount
	}

	if *declared <= 0 {
		return MinimumChargeAmount
	}
	return *declared
}
