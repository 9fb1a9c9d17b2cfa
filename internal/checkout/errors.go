package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to check out")
	ErrIllegalTransition  = errors.New("illegal transition of checkout state")
	ErrSubmissionInFlight = errors.New("order submission already in flight")
	ErrSessionNotFound    = errors.New("checkout session not found")
)
