package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reservation-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func inventoryKey(pharmacyID int64) string {
	return fmt.Sprintf("inventory:pharmacy:%d", pharmacyID)
}

// CacheInventory stores a pharmacy's inventory snapshot with TTL
func (c *Client) CacheInventory(ctx context.Context, pharmacyID int64, recs []models.InventoryRecord, ttl time.Duration) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}
	return c.rdb.Set(ctx, inventoryKey(pharmacyID), data, ttl).Err()
}

// GetCachedInventory retrieves a pharmacy's cached inventory snapshot.
// Returns (nil, nil) on a cache miss.
func (c *Client) GetCachedInventory(ctx context.Context, pharmacyID int64) ([]models.InventoryRecord, error) {
	data, err := c.rdb.Get(ctx, inventoryKey(pharmacyID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var recs []models.InventoryRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached inventory: %w", err)
	}
	return recs, nil
}

// InvalidateInventory drops a pharmacy's cached inventory snapshot
func (c *Client) InvalidateInventory(ctx context.Context, pharmacyID int64) error {
	return c.rdb.Del(ctx, inventoryKey(pharmacyID)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
