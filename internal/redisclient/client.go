package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"restaurant-service/internal/models"
)

const (
	dashboardKey = "dashboard:info"
	menuKey      = "menu:items"
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

// SetDashboard caches dashboard counters with a TTL.
func (c *Client) SetDashboard(ctx context.Context, info *models.DashboardInfo, ttl time.Duration) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard info: %w", err)
	}
	return c.rdb.Set(ctx, dashboardKey, data, ttl).Err()
}

// GetDashboard returns cached dashboard counters, or nil on a miss.
func (c *Client) GetDashboard(ctx context.Context) (*models.DashboardInfo, error) {
	data, err := c.rdb.Get(ctx, dashboardKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info models.DashboardInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dashboard info: %w", err)
	}
	return &info, nil
}

// InvalidateDashboard drops the cached dashboard counters.
func (c *Client) InvalidateDashboard(ctx context.Context) error {
	return c.rdb.Del(ctx, dashboardKey).Err()
}

// SetMenu caches the menu listing with a TTL.
func (c *Client) SetMenu(ctx context.Context, items []models.MenuItem, ttl time.Duration) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal menu: %w", err)
	}
	return c.rdb.Set(ctx, menuKey, data, ttl).Err()
}

// GetMenu returns the cached menu listing, or nil on a miss.
func (c *Client) GetMenu(ctx context.Context) ([]models.MenuItem, error) {
	data, err := c.rdb.Get(ctx, menuKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu: %w", err)
	}
	return items, nil
}

// InvalidateMenu drops the cached menu listing.
func (c *Client) InvalidateMenu(ctx context.Context) error {
	return c.rdb.Del(ctx, menuKey).Err()
}
