package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tmarev/authgate/token"
)

// Expired rows linger this long so consumption can still report expiry
// instead of absence.
const pruneGrace = 24 * time.Hour

// Insert implements authgate.TokenStore.
func (s *Store) Insert(ctx context.Context, rec token.Record) error {
	const query = `
		INSERT INTO tokens (id, user_id, kind, value_hash, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)`

	_, err := s.q(ctx).Exec(ctx, query,
		rec.ID, rec.UserID, string(rec.Kind), rec.ValueHash[:], rec.ExpiresAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", token.ErrUnavailable, err)
	}
	return nil
}

// Consume implements authgate.TokenStore with single-transaction
// atomicity: the row is locked FOR UPDATE, apply runs with the transaction
// attached to ctx, and the used flip commits with apply's writes. Any
// failure rolls the whole thing back and the token stays presentable.
func (s *Store) Consume(
	ctx context.Context,
	valueHash [32]byte,
	kind token.Kind,
	apply func(ctx context.Context, userID string) error,
) (token.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return token.Record{}, fmt.Errorf("%w: %v", token.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	const query = `
		SELECT id, user_id, kind, value_hash, expires_at, used, created_at
		FROM tokens
		WHERE value_hash = $1 AND kind = $2
		FOR UPDATE`

	var rec token.Record
	var rawHash []byte
	var rawKind string
	err = tx.QueryRow(ctx, query, valueHash[:], string(kind)).Scan(
		&rec.ID, &rec.UserID, &rawKind, &rawHash, &rec.ExpiresAt, &rec.Used, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return token.Record{}, token.ErrNotFound
		}
		return token.Record{}, fmt.Errorf("%w: %v", token.ErrUnavailable, err)
	}
	rec.Kind = token.Kind(rawKind)
	copy(rec.ValueHash[:], rawHash)

	if rec.Used {
		return token.Record{}, token.ErrUsed
	}
	if !s.now().Before(rec.ExpiresAt) {
		return token.Record{}, token.ErrExpired
	}

	if apply != nil {
		if err := apply(withTx(ctx, tx), rec.UserID); err != nil {
			return token.Record{}, err
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE tokens SET used = true WHERE id = $1`, rec.ID); err != nil {
		return token.Record{}, fmt.Errorf("%w: %v", token.ErrUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return token.Record{}, fmt.Errorf("%w: %v", token.ErrUnavailable, err)
	}

	rec.Used = true
	return rec, nil
}

// DeleteForUser implements authgate.TokenStore.
func (s *Store) DeleteForUser(ctx context.Context, userID string, kinds ...token.Kind) error {
	if len(kinds) == 0 {
		if _, err := s.q(ctx).Exec(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("%w: %v", token.ErrUnavailable, err)
		}
		return nil
	}

	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	const query = `DELETE FROM tokens WHERE user_id = $1 AND kind = ANY($2)`
	if _, err := s.q(ctx).Exec(ctx, query, userID, names); err != nil {
		return fmt.Errorf("%w: %v", token.ErrUnavailable, err)
	}
	return nil
}

// PruneExpired deletes rows past expiry plus grace. Intended for a periodic
// maintenance job; Redis deployments get this for free from key TTLs.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM tokens WHERE expires_at < $1`

	tag, err := s.q(ctx).Exec(ctx, query, s.now().Add(-pruneGrace))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", token.ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
