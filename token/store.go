package token

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates no persisted row matches the value and kind.
	ErrNotFound = errors.New("token not found")
	// ErrExpired indicates the row exists but is past its expiry date.
	ErrExpired = errors.New("token expired")
	// ErrUsed indicates the row has already been consumed.
	ErrUsed = errors.New("token already used")
	// ErrUnavailable indicates the token backend is unreachable.
	ErrUnavailable = errors.New("token backend unavailable")
)

// StoreConfig controls the Redis key layout and post-expiry retention.
type StoreConfig struct {
	Prefix string
	// RetentionGrace keeps expired rows around so consumption can report
	// ErrExpired instead of ErrNotFound for a while after expiry.
	RetentionGrace time.Duration
}

// Store is the Redis-backed token store. Consumption uses WATCH so that two
// concurrent consumers of the same value cannot both succeed.
type Store struct {
	redis redis.UniversalClient
	cfg   StoreConfig
	now   func() time.Time
}

const userIndexTTL = 45 * 24 * time.Hour

// NewStore creates a Redis-backed store. now may be nil, in which case
// time.Now is used.
func NewStore(redisClient redis.UniversalClient, cfg StoreConfig, now func() time.Time) *Store {
	if cfg.Prefix == "" {
		cfg.Prefix = "agt"
	}
	if cfg.RetentionGrace <= 0 {
		cfg.RetentionGrace = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Store{redis: redisClient, cfg: cfg, now: now}
}

func (s *Store) key(kind Kind, valueHash [32]byte) string {
	return s.cfg.Prefix + ":" + string(kind) + ":" + hex.EncodeToString(valueHash[:])
}

func (s *Store) userKey(userID string) string {
	return s.cfg.Prefix + ":u:" + userID
}

// Insert persists a new token row. The row lives until expiry plus the
// retention grace, after which Redis evicts it.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	encoded, err := encodeRecord(&rec)
	if err != nil {
		return err
	}

	ttl := rec.ExpiresAt.Sub(s.now()) + s.cfg.RetentionGrace
	if ttl <= 0 {
		return fmt.Errorf("%w: token already expired at insert", ErrUnavailable)
	}

	key := s.key(rec.Kind, rec.ValueHash)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, encoded, ttl)
		pipe.SAdd(ctx, s.userKey(rec.UserID), key)
		pipe.Expire(ctx, s.userKey(rec.UserID), userIndexTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Consume looks up the unused row matching valueHash and kind, runs apply
// with the owning user id, and then flips used to true, all under WATCH, so
// exactly one of any set of concurrent consumers wins. When apply returns an
// error the flip is not written and the error is returned unchanged.
//
// Redis cannot span the caller's datastore, so apply runs before the
// conditional flip and is not compensated if the flip itself fails. The
// invariant that matters still holds: a failed side effect leaves the token
// unused. Use the pgstore implementation when the side effect lives in the
// same database as the tokens.
func (s *Store) Consume(
	ctx context.Context,
	valueHash [32]byte,
	kind Kind,
	apply func(ctx context.Context, userID string) error,
) (Record, error) {
	const maxRetries = 4
	key := s.key(kind, valueHash)

	for i := 0; i < maxRetries; i++ {
		var consumed *Record

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			rec, err := decodeRecord(data)
			if err != nil {
				return err
			}
			if rec.Used {
				return ErrUsed
			}
			if !s.now().Before(rec.ExpiresAt) {
				return ErrExpired
			}

			if apply != nil {
				if err := apply(ctx, rec.UserID); err != nil {
					return err
				}
			}

			rec.Used = true
			updated, err := encodeRecord(rec)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, redis.KeepTTL)
				return nil
			})
			if err != nil {
				return err
			}

			consumed = rec
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return Record{}, ErrNotFound
			case errors.Is(err, ErrUsed), errors.Is(err, ErrExpired), errors.Is(err, errCorruptRecord):
				return Record{}, err
			default:
				// apply errors and backend failures surface unchanged so the
				// caller can distinguish its own side-effect failures.
				return Record{}, err
			}
		}

		return *consumed, nil
	}

	return Record{}, fmt.Errorf("%w: consume retries exhausted", ErrUnavailable)
}

// DeleteForUser removes persisted tokens owned by userID. With no kinds it
// removes everything, mirroring a foreign-key cascade on user deletion;
// with kinds it removes only the named families, as in a revoke-all-refresh
// operation.
func (s *Store) DeleteForUser(ctx context.Context, userID string, kinds ...Kind) error {
	keys, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	selected := keys
	if len(kinds) > 0 {
		selected = selected[:0:0]
		for _, key := range keys {
			for _, kind := range kinds {
				if strings.HasPrefix(key, s.cfg.Prefix+":"+string(kind)+":") {
					selected = append(selected, key)
					break
				}
			}
		}
	}

	if len(selected) > 0 {
		if err := s.redis.Del(ctx, selected...).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if len(kinds) == 0 {
		if err := s.redis.Del(ctx, s.userKey(userID)).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	if len(selected) > 0 {
		members := make([]interface{}, len(selected))
		for i, key := range selected {
			members[i] = key
		}
		if err := s.redis.SRem(ctx, s.userKey(userID), members...).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}
