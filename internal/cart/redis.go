package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChangeChannel carries the storage key of every write so other processes can
// re-read the cart (the cross-view "cart changed" broadcast).
const ChangeChannel = "cart:changed"

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{
		client:  client,
		baseTTL: 90 * 24 * time.Hour,
	}
}

// RedisStorage implements Storage on Redis. Carts are kept for 90 days of
// inactivity, matching the retention of abandoned carts.
type RedisStorage struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) Write(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, storageKey(key), value, r.baseTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	r.broadcast(ctx, key)
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, storageKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	r.broadcast(ctx, key)
	return nil
}

// Listen yields the keys announced on ChangeChannel until ctx ends. Callers
// re-read storage on each message; the payload carries no cart data.
func (r *RedisStorage) Listen(ctx context.Context) (<-chan string, func() error) {
	sub := r.client.Subscribe(ctx, ChangeChannel)
	keys := make(chan string)

	go func() {
		defer close(keys)
		for msg := range sub.Channel() {
			select {
			case keys <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	return keys, sub.Close
}

// broadcast is best effort; a missed notification only delays a re-read.
func (r *RedisStorage) broadcast(ctx context.Context, key string) {
	if err := r.client.Publish(ctx, ChangeChannel, key).Err(); err != nil {
		log.Printf("cart change broadcast failed: %v", err)
	}
}

func storageKey(key string) string {
	return fmt.Sprintf("storefront:%s", key)
}
