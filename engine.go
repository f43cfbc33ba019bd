package authgate

import (
	"context"
	"log"
	"time"

	"github.com/tmarev/authgate/internal/audit"
	"github.com/tmarev/authgate/jwt"
	"github.com/tmarev/authgate/password"
	"github.com/tmarev/authgate/permission"
	"github.com/tmarev/authgate/token"
)

// Engine is the authentication and authorization core. Construct it with
// [Builder]; the zero value is not usable. Engine instances are safe for
// concurrent use.
type Engine struct {
	config          Config
	userProvider    UserProvider
	roleProvider    RoleProvider
	tokenStore      TokenStore
	guard           AttemptGuard
	policy          permission.Policy
	passwordHash    *password.Argon2
	jwtManager      *jwt.Manager
	auditDispatcher *audit.Dispatcher
	metrics         *Metrics
	clock           func() time.Time
}

// Close flushes and stops the audit dispatcher. Idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.auditDispatcher != nil {
		e.auditDispatcher.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.auditDispatcher == nil {
		return 0
	}
	return e.auditDispatcher.Dropped()
}

// MetricsSnapshot copies the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e != nil && e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

func (e *Engine) warn(msg string, args ...any) {
	log.Println(append([]any{msg}, args...)...)
}

// issueTokenPair mints an access token and a persisted single-use refresh
// token for user.
func (e *Engine) issueTokenPair(ctx context.Context, user UserRecord) (access, refresh string, err error) {
	now := e.now()

	access, err = e.jwtManager.CreateAccess(accessUser(user), now)
	if err != nil {
		return "", "", err
	}

	refresh, err = e.jwtManager.CreateRefresh(user.ID, now)
	if err != nil {
		return "", "", err
	}

	record := token.Record{
		ID:        token.NewID(),
		UserID:    user.ID,
		Kind:      token.KindRefresh,
		ValueHash: token.HashValue(refresh),
		ExpiresAt: now.Add(e.config.JWT.RefreshTTL),
		CreatedAt: now,
	}
	if err := e.tokenStore.Insert(ctx, record); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// issueAccess mints only an access token for user.
func (e *Engine) issueAccess(user UserRecord) (string, error) {
	return e.jwtManager.CreateAccess(accessUser(user), e.now())
}

func accessUser(user UserRecord) jwt.AccessUser {
	return jwt.AccessUser{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Verified: user.Verified,
		Roles:    user.Roles,
	}
}

// issuePurposeToken creates and persists a single-use verification or reset
// token for userID and returns the plaintext value. The store only ever
// sees the digest.
func (e *Engine) issuePurposeToken(ctx context.Context, userID string, kind token.Kind, ttl time.Duration) (string, error) {
	value, err := token.NewValue()
	if err != nil {
		return "", err
	}

	now := e.now()
	record := token.Record{
		ID:        token.NewID(),
		UserID:    userID,
		Kind:      kind,
		ValueHash: token.HashValue(value),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := e.tokenStore.Insert(ctx, record); err != nil {
		return "", err
	}

	return value, nil
}
