package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/google/uuid"
)

// PurchaseClient is the slice of the commerce API the submitter needs.
// Consumers define this interface, not the HTTP client.
type PurchaseClient interface {
	SubmitPurchase(ctx context.Context, req catalog.PurchaseRequest) error
}

// SubmissionResult reports a whole-checkout outcome: either every line was
// purchased, or iteration stopped at FailedLine with its message. Lines
// before FailedLine may already be committed remotely.
type SubmissionResult struct {
	Submitted  int
	FailedLine int
	Message    string
}

func (r SubmissionResult) Succeeded() bool {
	return r.FailedLine < 0
}

// Submitter turns a validated checkout into a sequence of purchase calls,
// one per cart line, strictly in cart order and one at a time. On full
// success it clears the cart store and announces the order; on the first
// failure it stops and leaves the cart untouched so the user can retry.
// There is no idempotency key, so a retry after a partial failure can
// re-submit lines that already committed.
type Submitter struct {
	client    PurchaseClient
	store     *cart.Store
	publisher events.OrderPublisher
}

func NewSubmitter(client PurchaseClient, store *cart.Store, publisher events.OrderPublisher) *Submitter {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Submitter{
		client:    client,
		store:     store,
		publisher: publisher,
	}
}

func (s *Submitter) Submit(ctx context.Context, lines []domain.CartLine, shipping domain.ShippingForm) SubmissionResult {
	for i, line := range lines {
		req := catalog.PurchaseRequest{
			ProductOptionID: line.OptionID,
			Quantity:        line.Quantity,
			PaymentMethod:   "credit_card",
			ShippingAddress: shippingAddress(shipping),
			Notes:           orderNotes(shipping),
		}
		if err := s.client.SubmitPurchase(ctx, req); err != nil {
			return SubmissionResult{
				Submitted:  i,
				FailedLine: i,
				Message:    fmt.Sprintf("could not purchase %s (item %d of %d): %v", line.ProductName, i+1, len(lines), err),
			}
		}
	}

	if err := s.store.Clear(ctx); err != nil {
		// All purchases committed; a stale cart is recoverable, failing
		// the checkout now is not.
		log.Printf("failed to clear cart after successful submission: %v", err)
	}
	s.announce(ctx, lines)

	return SubmissionResult{Submitted: len(lines), FailedLine: -1}
}

func (s *Submitter) announce(ctx context.Context, lines []domain.CartLine) {
	order := events.CompletedOrder{
		OrderID:     uuid.NewString(),
		Items:       make([]events.OrderItem, 0, len(lines)),
		TotalAmount: pricing.GrandTotal(lines),
		Currency:    "SGD",
		CompletedAt: time.Now(),
	}
	for _, line := range lines {
		order.Items = append(order.Items, events.OrderItem{
			ProductID:       line.ProductID,
			OptionID:        line.OptionID,
			ProductName:     line.ProductName,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
		})
	}

	if err := s.publisher.PublishCompleted(ctx, order); err != nil {
		log.Printf("failed to publish completed order %s: %v", order.OrderID, err)
	}
}

func shippingAddress(f domain.ShippingForm) string {
	if f.DeliveryMethod == domain.DeliveryPickup {
		return "Self pickup at store"
	}
	addr := f.Address
	if f.Unit != "" {
		addr += ", " + f.Unit
	}
	addr += ", Singapore " + f.PostalCode
	if f.Region != "" {
		addr += " (" + f.Region + ")"
	}
	return addr
}

func orderNotes(f domain.ShippingForm) string {
	return fmt.Sprintf("Customer: %s; Phone: %s; Delivery: %s", f.FullName, f.Phone, f.DeliveryMethod)
}
