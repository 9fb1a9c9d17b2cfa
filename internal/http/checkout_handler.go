package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CheckoutHandler struct {
	sessions  *checkout.Sessions
	storage   cart.Storage
	submitter *checkout.Submitter
	timeout   time.Duration
}

func NewCheckoutHandler(sessions *checkout.Sessions, storage cart.Storage, submitter *checkout.Submitter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions:  sessions,
		storage:   storage,
		submitter: submitter,
		timeout:   timeout,
	}
}

type CheckoutViewDTO struct {
	SessionID       string                  `json:"session_id"`
	State           domain.CheckoutState    `json:"state"`
	Cart            CartResponseDTO         `json:"cart"`
	Shipping        domain.ShippingForm     `json:"shipping"`
	ShippingErrors  domain.ValidationErrors `json:"shipping_errors,omitempty"`
	PaymentErrors   domain.ValidationErrors `json:"payment_errors,omitempty"`
	ProcessingError string                  `json:"processing_error,omitempty"`
}

func checkoutView(sessionID string, flow *checkout.Flow) CheckoutViewDTO {
	return CheckoutViewDTO{
		SessionID:       sessionID,
		State:           flow.State(),
		Cart:            cartResponse(flow.Lines(), false),
		Shipping:        flow.ShippingForm(),
		ShippingErrors:  flow.ShippingErrors(),
		PaymentErrors:   flow.PaymentErrors(),
		ProcessingError: flow.ProcessingError(),
	}
}

// Start opens a checkout session from the persisted checkout snapshot,
// falling back to the canonical cart.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lines, err := cart.CheckoutLines(ctx, h.storage)
	if err != nil {
		if aborted(r.Context()) {
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "could not read cart")
		return
	}
	if len(lines) == 0 {
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty, nothing to check out")
		return
	}

	flow := checkout.NewFlow(lines)
	id := h.sessions.Open(flow)
	respondJSON(w, http.StatusCreated, checkoutView(id, flow))
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	flow, id, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, checkoutView(id, flow))
}

func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	flow, id, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var form domain.ShippingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	errs, err := flow.SubmitShipping(form)
	if err != nil {
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
		return
	}
	if len(errs) > 0 {
		respondJSON(w, http.StatusUnprocessableEntity, checkoutView(id, flow))
		return
	}
	respondJSON(w, http.StatusOK, checkoutView(id, flow))
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	flow, id, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	if err := flow.Back(); err != nil {
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, checkoutView(id, flow))
}

func (h *CheckoutHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	flow, id, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var form domain.PaymentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, errs, err := flow.SubmitPayment(ctx, form, h.submitter)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrSubmissionInFlight):
			respondError(w, http.StatusConflict, "submission_in_flight", err.Error())
		case errors.Is(err, checkout.ErrEmptyCart):
			respondError(w, http.StatusConflict, "empty_cart", err.Error())
		default:
			respondError(w, http.StatusConflict, "illegal_transition", err.Error())
		}
		return
	}
	if len(errs) > 0 {
		respondJSON(w, http.StatusUnprocessableEntity, checkoutView(id, flow))
		return
	}

	view := checkoutView(id, flow)
	if result.Succeeded() {
		h.sessions.Remove(id)
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) flowFromRequest(w http.ResponseWriter, r *http.Request) (*checkout.Flow, string, bool) {
	id := chi.URLParam(r, "session_id")
	flow, err := h.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
		return nil, "", false
	}
	return flow, id, true
}
