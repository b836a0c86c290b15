package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTimelineTTL bounds how long a built timeline is reused
const DefaultTimelineTTL = 10 * time.Minute

// TimelineCache stores built timelines in Redis keyed by user and input hash
type TimelineCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewTimelineCache creates a timeline cache. A non-positive ttl uses DefaultTimelineTTL.
func NewTimelineCache(client redis.Cmdable, ttl time.Duration) *TimelineCache {
	if ttl <= 0 {
		ttl = DefaultTimelineTTL
	}
	return &TimelineCache{client: client, ttl: ttl}
}

func timelineKey(userID uuid.UUID, key string) string {
	return fmt.Sprintf("timeline:%s:%s", userID, key)
}

// Get returns the cached timeline for key, reporting false on a miss
func (c *TimelineCache) Get(ctx context.Context, userID uuid.UUID, key string) ([]models.Segment, bool, error) {
	payload, err := c.client.Get(ctx, timelineKey(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read timeline cache: %w", err)
	}

	segments, err := decodeSegments(payload)
	if err != nil {
		return nil, false, err
	}
	return segments, true, nil
}

// Set stores a timeline under key for the cache TTL
func (c *TimelineCache) Set(ctx context.Context, userID uuid.UUID, key string, segments []models.Segment) error {
	payload, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}
	if err := c.client.Set(ctx, timelineKey(userID, key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write timeline cache: %w", err)
	}
	return nil
}

func decodeSegments(payload []byte) ([]models.Segment, error) {
	var segments []models.Segment
	if err := json.Unmarshal(payload, &segments); err != nil {
		return nil, fmt.Errorf("failed to decode cached timeline: %w", err)
	}
	return segments, nil
}

// NewClient parses a redis:// URL and verifies the server answers
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
