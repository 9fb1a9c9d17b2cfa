package cart

import (
	"context"
	"errors"
	"log"

	"github.com/fjod/go_storefront/internal/domain"
)

// CheckoutLines reads the cart state a checkout session starts from. The
// dedicated checkout snapshot key wins when present and readable; otherwise
// the canonical cart is used. Unreadable documents degrade to an empty cart.
func CheckoutLines(ctx context.Context, storage Storage) ([]domain.CartLine, error) {
	for _, key := range []string{KeyCheckoutSnapshot, KeyCartItems} {
		data, err := storage.Read(ctx, key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		lines, rejected, decodeErr := domain.DecodeCartLines(data)
		if decodeErr != nil {
			log.Printf("skipping unreadable %q snapshot: %v", key, decodeErr)
			continue
		}
		if rejected > 0 {
			log.Printf("dropped %d malformed entries from %q", rejected, key)
		}
		return lines, nil
	}
	return nil, nil
}
