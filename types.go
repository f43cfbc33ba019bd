package authgate

import (
	"context"
	"time"

	"github.com/tmarev/authgate/token"
)

// UserRecord is the full account record returned by [UserProvider]. It
// carries the credential hash and so must never be serialized to callers;
// use [SafeUser] for anything that leaves the process.
type UserRecord struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Verified     bool
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser is the sanitized projection of a [UserRecord]: everything except
// credential material.
type SafeUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Verified  bool      `json:"verified"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Safe returns the sanitized projection of u.
func (u UserRecord) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Verified:  u.Verified,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
	}
}

// CreateUserInput is passed to [UserProvider.CreateUser]. PasswordHash is
// already derived; providers never see plaintext.
type CreateUserInput struct {
	Email        string
	FullName     string
	PasswordHash string
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         SafeUser
}

// RefreshResult is returned by [Engine.Refresh]. Exactly one access token;
// the presented refresh token is consumed and no replacement is issued.
type RefreshResult struct {
	AccessToken string
	UserID      string
}

// AuthResult is returned by [Engine.Authenticate]. Claims are a snapshot
// from issuance time and may lag the database.
type AuthResult struct {
	UserID   string
	Email    string
	FullName string
	Verified bool
	Roles    []string
}

// CreateAccountResult is returned by [Engine.CreateAccount]. The
// verification token is handed to the caller for delivery; the engine never
// sends email.
type CreateAccountResult struct {
	User              SafeUser
	VerificationToken string
}

// UserProvider is the primary interface that callers must implement to
// integrate the engine with their user database. Lookups report absence via
// the found flag, not an error, so enumeration-safe flows can branch without
// error inspection.
//
// Mutating methods must honor a transaction attached to ctx by the token
// store, so that a token consumption and its side effect commit or fail
// together.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, bool, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, bool, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	MarkVerified(ctx context.Context, userID string) error
}

// ActivityRecorder is an optional capability of a [UserProvider]. When the
// provider implements it, the engine stamps login time and origin after every
// verified login and last-online time on logout. Failures are logged, never
// surfaced: activity stamps must not fail an otherwise successful operation.
type ActivityRecorder interface {
	RecordLogin(ctx context.Context, userID, origin string, at time.Time) error
	RecordLogout(ctx context.Context, userID string, at time.Time) error
}

// RoleProvider loads role membership for permission resolution.
type RoleProvider interface {
	RolesForUser(ctx context.Context, userID string) ([]RoleRecord, error)
}

// RoleRecord is a named permission bundle as stored.
type RoleRecord struct {
	Name        string
	Permissions []string
}

// AttemptGuard throttles login attempts per (email, origin) key.
//
// CheckAdmission must return [ErrTooManyAttempts] (or an error wrapping it)
// when the key is locked; the engine surfaces it unchanged. Any other
// non-nil error is treated as a backend failure and reported as
// [ErrGuardUnavailable].
type AttemptGuard interface {
	CheckAdmission(ctx context.Context, email, origin string) error
	RecordFailure(ctx context.Context, email, origin string) error
	Reset(ctx context.Context, email, origin string) error
}

// TokenStore persists single-use token records. Consume must be atomic: the
// apply callback and the used-flag flip succeed or fail together, and no
// record is ever consumed twice even under concurrent presentation.
//
// The Redis-backed [token.Store] and the Postgres-backed pgstore both
// satisfy this interface. They differ in how tightly apply is coupled to the
// flip: pgstore runs both in one SQL transaction, while the Redis store runs
// apply before the guarded flip, so a write conflict at the flip can leave
// the side effect applied with the token still unused. Prefer pgstore when
// the side effect lives in the same database as the tokens.
type TokenStore interface {
	Insert(ctx context.Context, record token.Record) error
	Consume(ctx context.Context, valueHash [32]byte, kind token.Kind, apply func(ctx context.Context, userID string) error) (token.Record, error)
	DeleteForUser(ctx context.Context, userID string, kinds ...token.Kind) error
}

// AuditSink receives security-relevant events. See [AuditEvent].
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// AuditEvent is the public audit event shape.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Origin    string            `json:"origin,omitempty"`
	Success   bool              `json:"success"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
