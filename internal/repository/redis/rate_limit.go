package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/claudemarjean/Ivony/internal/core/port"
)

var errNonPositiveWindow = errors.New("window must be positive")

// WindowConfig scopes the sliding-window keys and how long an idle key survives.
type WindowConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// WindowStore keeps per-identifier request timestamps in Redis sorted sets scored by
// nanosecond time, one set per identifier.
type WindowStore struct {
	client redis.UniversalClient
	cfg    WindowConfig
}

func NewWindowStore(client redis.UniversalClient, cfg WindowConfig) *WindowStore {
	return &WindowStore{client: client, cfg: cfg}
}

// RecordAttempt adds at to the window and refreshes the key TTL in one round trip.
func (s *WindowStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := s.key(identifier)
	stamp := at.UnixNano()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(stamp), Member: strconv.FormatInt(stamp, 10)})
		if s.cfg.TTL > 0 {
			pipe.Expire(ctx, key, s.cfg.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record attempt: %w", err)
	}
	return nil
}

func (s *WindowStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errNonPositiveWindow
	}

	lo, hi := bounds(window, reference)
	count, err := s.client.ZCount(ctx, s.key(identifier), lo, hi).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcount: %w", err)
	}
	return int(count), nil
}

// TrimWindow drops every timestamp older than reference-window.
func (s *WindowStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errNonPositiveWindow
	}

	lo, _ := bounds(window, reference)
	if err := s.client.ZRemRangeByScore(ctx, s.key(identifier), "-inf", "("+lo).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}
	return nil
}

func (s *WindowStore) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errNonPositiveWindow
	}

	lo, hi := bounds(window, reference)
	values, err := s.client.ZRangeByScore(ctx, s.key(identifier), &redis.ZRangeBy{
		Min:   lo,
		Max:   hi,
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis zrangebyscore: %w", err)
	}
	if len(values) == 0 {
		return time.Time{}, false, nil
	}

	stamp, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse timestamp %q: %w", values[0], err)
	}
	return time.Unix(0, stamp), true, nil
}

// Reset forgets every attempt recorded for identifier.
func (s *WindowStore) Reset(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, s.key(identifier)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *WindowStore) key(identifier string) string {
	if s.cfg.KeyPrefix == "" {
		return identifier
	}
	return s.cfg.KeyPrefix + ":" + identifier
}

func bounds(window time.Duration, reference time.Time) (string, string) {
	return strconv.FormatInt(reference.Add(-window).UnixNano(), 10), strconv.FormatInt(reference.UnixNano(), 10)
}

var _ port.RateLimitStore = (*WindowStore)(nil)
