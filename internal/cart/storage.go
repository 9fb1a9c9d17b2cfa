package cart

import (
	"context"
	"errors"
)

// Storage keys shared by every adapter. KeyCheckoutSnapshot, when present, is
// preferred over KeyCartItems at checkout entry.
const (
	KeyCartItems        = "cartItems"
	KeyCheckoutSnapshot = "cartCheckoutSnapshot"
)

var ErrKeyNotFound = errors.New("storage key not found")

// Storage is the key-value port the cart persists through.
// Consumers define this interface, not the backing implementation.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
