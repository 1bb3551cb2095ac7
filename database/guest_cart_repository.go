package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-api/models"
)

// GuestCartRepository stores device-scoped carts for anonymous visitors as
// JSON blobs in Redis. It also serves as the fallback store when the
// account cart table is unavailable.
type GuestCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuestCartRepository(client *redis.Client, ttl time.Duration) *GuestCartRepository {
	return &GuestCartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *GuestCartRepository) getKey(deviceID string) string {
	return fmt.Sprintf("cart:guest:%s", deviceID)
}

// GetCart returns nil when no cart exists for the device.
func (r *GuestCartRepository) GetCart(ctx context.Context, deviceID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(deviceID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GuestCartRepository) SaveCart(ctx context.Context, deviceID string, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(deviceID), data, r.ttl).Err()
}

func (r *GuestCartRepository) DeleteCart(ctx context.Context, deviceID string) error {
	return r.client.Del(ctx, r.getKey(deviceID)).Err()
}
