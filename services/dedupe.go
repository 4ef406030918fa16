package services

import (
	"context"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
)

// DedupeGuard remembers recently processed activities by their provider ID so
// webhook replays and overlapping backfills do not re-run the evaluators. It
// is defence in depth: the tier-monotonic awarder already makes replays
// harmless at the award level.
type DedupeGuard interface {
	Seen(ctx context.Context, externalID string) (bool, error)
	Mark(ctx context.Context, externalID string) error
}

const dedupeKeyPrefix = "ffc:processed:"

type RedisDedupe struct {
	conn *redis.Client
	ttl  time.Duration
}

// NewRedisDedupe connects to redis at addr (a redis URL) and pings it.
func NewRedisDedupe(ctx context.Context, addr string, ttl time.Duration) (*RedisDedupe, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisDedupe{conn: client, ttl: ttl}, nil
}

func (rd *RedisDedupe) Seen(ctx context.Context, externalID string) (bool, error) {
	n, err := rd.conn.Exists(ctx, dedupeKeyPrefix+externalID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (rd *RedisDedupe) Mark(ctx context.Context, externalID string) error {
	return rd.conn.Set(ctx, dedupeKeyPrefix+externalID, 1, rd.ttl).Err()
}
