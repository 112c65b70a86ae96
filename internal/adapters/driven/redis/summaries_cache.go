package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/arealis/stac-search-core/internal/core/domain"
	"github.com/arealis/stac-search-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SummariesCache = (*SummariesCache)(nil)

const summariesKey = "stac:summaries"

// SummariesCache shares collection summaries snapshots across instances
// through Redis. Snapshots are msgpack-encoded and expire on TTL, so a stale
// deployment-wide cache heals itself within one refresh interval.
type SummariesCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummariesCache creates a new Redis-backed SummariesCache
func NewSummariesCache(client *redis.Client, ttl time.Duration) *SummariesCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummariesCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot, or domain.ErrNotFound when absent
func (c *SummariesCache) Get(ctx context.Context) (*domain.SummariesSnapshot, error) {
	data, err := c.client.Get(ctx, summariesKey).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries snapshot: %w", err)
	}

	var snapshot domain.SummariesSnapshot
	if err := msgpack.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summaries snapshot: %w", err)
	}
	return &snapshot, nil
}

// Set stores a snapshot with the configured TTL
func (c *SummariesCache) Set(ctx context.Context, snapshot *domain.SummariesSnapshot) error {
	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal summaries snapshot: %w", err)
	}
	if err := c.client.Set(ctx, summariesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store summaries snapshot: %w", err)
	}
	return nil
}
