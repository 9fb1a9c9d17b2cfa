// Package checkout drives the two-step checkout: shipping form, payment
// form, then one purchase call per cart line against the commerce API.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/validate"
)

// Flow is one checkout session's state machine. It owns both forms and their
// error maps; the cart snapshot is captured once when the flow opens. All
// methods are safe for concurrent use; the SUBMITTING state doubles as the
// double-submit guard.
type Flow struct {
	mu              sync.Mutex
	state           domain.CheckoutState
	lines           []domain.CartLine
	shipping        domain.ShippingForm
	payment         domain.PaymentForm
	shippingErrors  domain.ValidationErrors
	paymentErrors   domain.ValidationErrors
	processingError string

	now func() time.Time
}

func NewFlow(lines []domain.CartLine) *Flow {
	return &Flow{
		state: domain.CheckoutStateShipping,
		lines: lines,
		now:   time.Now,
	}
}

func (f *Flow) State() domain.CheckoutState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Lines returns the snapshot the session opened with.
func (f *Flow) Lines() []domain.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CartLine, len(f.lines))
	copy(out, f.lines)
	return out
}

func (f *Flow) ShippingForm() domain.ShippingForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shipping
}

func (f *Flow) PaymentForm() domain.PaymentForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payment
}

func (f *Flow) ShippingErrors() domain.ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shippingErrors
}

func (f *Flow) PaymentErrors() domain.ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paymentErrors
}

func (f *Flow) ProcessingError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processingError
}

// SubmitShipping validates the shipping step. With zero errors the flow
// advances to PAYMENT and the delivery region is derived from the postal
// code; otherwise the flow stays put with the fresh error map.
func (f *Flow) SubmitShipping(form domain.ShippingForm) (domain.ValidationErrors, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != domain.CheckoutStateShipping {
		return nil, ErrIllegalTransition
	}

	errs := validate.ShippingForm(form)
	f.shipping = form
	f.shippingErrors = errs
	if len(errs) > 0 {
		return errs, nil
	}

	f.shipping.Region = validate.Region(form.PostalCode)
	f.state = domain.CheckoutStatePayment
	return errs, nil
}

// Back returns to the shipping step. Both forms survive, so nothing the user
// typed is lost.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !domain.CanTransitionTo(f.state, domain.CheckoutStateShipping) {
		return ErrIllegalTransition
	}
	f.state = domain.CheckoutStateShipping
	return nil
}

// SubmitPayment validates the payment step and, when clean, runs the order
// submission. A second call while SUBMITTING returns ErrSubmissionInFlight.
// On failure the flow lands in FAILED with the retained message; the forms
// and the cart are kept so the user can retry.
func (f *Flow) SubmitPayment(ctx context.Context, form domain.PaymentForm, submitter *Submitter) (SubmissionResult, domain.ValidationErrors, error) {
	f.mu.Lock()

	if f.state == domain.CheckoutStateSubmitting {
		f.mu.Unlock()
		return SubmissionResult{}, nil, ErrSubmissionInFlight
	}
	if !domain.CanTransitionTo(f.state, domain.CheckoutStateSubmitting) {
		f.mu.Unlock()
		return SubmissionResult{}, nil, ErrIllegalTransition
	}

	errs := validate.PaymentForm(form, f.now())
	f.payment = form
	f.paymentErrors = errs
	if len(errs) > 0 {
		f.mu.Unlock()
		return SubmissionResult{}, errs, nil
	}

	if len(f.lines) == 0 {
		f.mu.Unlock()
		return SubmissionResult{}, nil, ErrEmptyCart
	}

	f.state = domain.CheckoutStateSubmitting
	f.processingError = ""
	lines := make([]domain.CartLine, len(f.lines))
	copy(lines, f.lines)
	shipping := f.shipping
	f.mu.Unlock()

	// The purchase calls run without the lock; the SUBMITTING state is the
	// re-entrancy guard.
	result := submitter.Submit(ctx, lines, shipping)

	f.mu.Lock()
	if result.Succeeded() {
		f.state = domain.CheckoutStateSucceeded
	} else {
		f.state = domain.CheckoutStateFailed
		f.processingError = result.Message
	}
	f.mu.Unlock()

	return result, nil, nil
}
