package domain

type CheckoutState string

const (
	CheckoutStateShipping   CheckoutState = "SHIPPING"
	CheckoutStatePayment    CheckoutState = "PAYMENT"
	CheckoutStateSubmitting CheckoutState = "SUBMITTING"
	CheckoutStateFailed     CheckoutState = "FAILED"
	CheckoutStateSucceeded  CheckoutState = "SUCCEEDED"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSucceeded
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

// CanTransitionTo enumerates the legal moves of the checkout flow. Back
// navigation to SHIPPING keeps both forms; FAILED allows retrying payment.
func CanTransitionTo(from, to CheckoutState) bool {
	switch from {
	case CheckoutStateShipping:
		return to == CheckoutStatePayment
	case CheckoutStatePayment:
		return to == CheckoutStateShipping || to == CheckoutStateSubmitting
	case CheckoutStateSubmitting:
		return to == CheckoutStateSucceeded || to == CheckoutStateFailed
	case CheckoutStateFailed:
		return to == CheckoutStateShipping || to == CheckoutStateSubmitting
	default:
		return false
	}
}
