package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLocked indicates the (email, origin) pair is inside its lockout
	// window.
	ErrLocked = errors.New("login attempts locked")
	// ErrUnavailable indicates the guard backend is unreachable.
	ErrUnavailable = errors.New("guard backend unavailable")
)

// Config holds the guard thresholds.
type Config struct {
	MaxAttempts  int
	LockDuration time.Duration
	Prefix       string
	// Retention bounds how long an idle counter row survives. Every failure
	// restarts the clock.
	Retention time.Duration
}

const (
	fieldAttempts = "n"
	fieldLastAt   = "t"
)

// RedisGuard tracks consecutive login failures per (email, origin) key in a
// Redis hash.
type RedisGuard struct {
	redis redis.UniversalClient
	cfg   Config
	now   func() time.Time
}

// NewRedisGuard creates a guard. now may be nil, in which case time.Now is
// used.
func NewRedisGuard(redisClient redis.UniversalClient, cfg Config, now func() time.Time) *RedisGuard {
	if cfg.Prefix == "" {
		cfg.Prefix = "aga"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &RedisGuard{redis: redisClient, cfg: cfg, now: now}
}

func (g *RedisGuard) key(email, origin string) string {
	return g.cfg.Prefix + ":" + strings.ToLower(strings.TrimSpace(email)) + ":" + origin
}

// CheckAdmission decides whether a login attempt for the key may proceed.
// Locked keys fail with ErrLocked until the lock duration has elapsed since
// the last failure; an elapsed lock resets the counter and admits.
func (g *RedisGuard) CheckAdmission(ctx context.Context, email, origin string) error {
	key := g.key(email, origin)

	vals, err := g.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(vals) == 0 {
		return nil
	}

	attempts, _ := strconv.Atoi(vals[fieldAttempts])
	if attempts < g.cfg.MaxAttempts {
		return nil
	}

	lastUnix, _ := strconv.ParseInt(vals[fieldLastAt], 10, 64)
	if g.now().Sub(time.Unix(lastUnix, 0)) < g.cfg.LockDuration {
		return ErrLocked
	}

	// Lock window elapsed: auto-unlock and admit this attempt.
	if err := g.redis.HSet(ctx, key, fieldAttempts, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RecordFailure increments the failure counter and stamps the failure time.
func (g *RedisGuard) RecordFailure(ctx context.Context, email, origin string) error {
	key := g.key(email, origin)

	_, err := g.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldAttempts, 1)
		pipe.HSet(ctx, key, fieldLastAt, g.now().Unix())
		pipe.Expire(ctx, key, g.cfg.Retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Reset clears the counter after a verified successful login.
func (g *RedisGuard) Reset(ctx context.Context, email, origin string) error {
	if err := g.redis.Del(ctx, g.key(email, origin)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Attempts returns the current failure count for the key. Used by tests and
// introspection endpoints.
func (g *RedisGuard) Attempts(ctx context.Context, email, origin string) (int, error) {
	val, err := g.redis.HGet(ctx, g.key(email, origin), fieldAttempts).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	attempts, _ := strconv.Atoi(val)
	return attempts, nil
}
