package validate

import (
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

// ShippingForm runs the full shipping validator set and returns a fresh error
// map; an empty map means the form may advance. Address fields are only
// required for home delivery.
func ShippingForm(f domain.ShippingForm) domain.ValidationErrors {
	errs := domain.ValidationErrors{}

	if f.DeliveryMethod != domain.DeliveryHome && f.DeliveryMethod != domain.DeliveryPickup {
		errs["delivery_method"] = "Choose home delivery or self pickup"
	}
	if strings.TrimSpace(f.FullName) == "" {
		errs["full_name"] = "Name is required"
	}
	if f.DeliveryMethod == domain.DeliveryHome {
		if strings.TrimSpace(f.Address) == "" {
			errs["address"] = "Address is required"
		}
		if !PostalCode(f.PostalCode) {
			errs["postal_code"] = "Postal code must be 6 digits"
		}
	}
	if !Phone(f.Phone) {
		errs["phone"] = "Enter an 8-digit phone number starting with 6, 8 or 9"
	}
	if !f.AcceptPrivacy {
		errs["accept_privacy"] = "You must accept the privacy policy"
	}
	return errs
}

// PaymentForm runs the full payment validator set against now.
func PaymentForm(f domain.PaymentForm, now time.Time) domain.ValidationErrors {
	errs := domain.ValidationErrors{}

	if !CardNumber(f.CardNumber) {
		errs["card_number"] = "Card number is invalid"
	}
	if !Expiry(f.Expiry, now) {
		errs["expiry"] = "Expiry must be MM/YY and not in the past"
	}
	if !CVV(f.CVV) {
		errs["cvv"] = "CVV must be 3 or 4 digits"
	}
	if strings.TrimSpace(f.HolderName) == "" {
		errs["holder_name"] = "Cardholder name is required"
	}
	if !f.AcceptPrivacy {
		errs["accept_privacy"] = "You must accept the privacy policy"
	}
	return errs
}
