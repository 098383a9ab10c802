package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// CartCache stores server-side carts in Redis as JSON, keyed by cart token.
// Each save refreshes the TTL so active carts stay alive and abandoned ones
// expire on their own.
type CartCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCartCache creates a CartCache with the given cart lifetime.
func NewCartCache(redis *RedisClient, ttl time.Duration) *CartCache {
	return &CartCache{
		redis: redis,
		ttl:   ttl,
	}
}

func (c *CartCache) key(token string) string {
	return fmt.Sprintf("cart:%s", token)
}

// Save serializes the cart and writes it under its token, refreshing the TTL.
func (c *CartCache) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(cart.Token), string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to store cart: %w", err)
	}
	return nil
}

// Get loads a cart by token. Returns utils.ErrCartNotFound when the token is
// unknown or the cart has expired.
func (c *CartCache) Get(ctx context.Context, token string) (*models.Cart, error) {
	data, err := c.redis.Get(ctx, c.key(token))
	if err != nil {
		if IsNil(err) {
			return nil, utils.ErrCartNotFound
		}
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return &cart, nil
}

// Delete removes a cart by token.
func (c *CartCache) Delete(ctx context.Context, token string) error {
	return c.redis.Delete(ctx, c.key(token))
}
