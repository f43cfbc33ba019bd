package authgate

import (
	"errors"

	"github.com/tmarev/authgate/token"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so callers cannot enumerate registered accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTooManyAttempts is returned when the login attempt guard has locked
	// the (email, origin) pair.
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrUnauthorized is returned for missing, malformed, expired, or
	// badly-signed access tokens, and for tokens whose user no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound is returned when a user id cannot be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is returned by CreateAccount for a duplicate email.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountAlreadyVerified is returned when verifying an email that has
	// already been verified. The presented token is not consumed.
	ErrAccountAlreadyVerified = errors.New("email already verified")
	// ErrPasswordPolicy is returned when a new password violates the
	// configured minimum length.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when a password change supplies the
	// current password as the new one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrRefreshInvalid is returned when a refresh token is unknown, already
	// used, expired, or fails signature verification.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrTokenInvalid is returned when a purpose token does not match any
	// persisted row of the expected kind.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a purpose token exists but is past
	// its expiry date.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenUsed is returned when a purpose token has already been
	// consumed. The used flag is monotonic and never reverts.
	ErrTokenUsed = errors.New("token already used")
	// ErrPermissionDenied is returned by permission-gated operations when
	// the effective permission set does not contain the required name.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrGuardUnavailable wraps attempt-guard backend failures.
	ErrGuardUnavailable = errors.New("attempt guard backend unavailable")
	// ErrTokenStoreUnavailable wraps token store backend failures.
	ErrTokenStoreUnavailable = errors.New("token store backend unavailable")
	// ErrEngineNotReady is returned when the engine was constructed without
	// a required collaborator.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// mapTokenErr translates store sentinels into the public purpose-token
// error taxonomy. Errors the store does not own pass through unchanged.
func mapTokenErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrNotFound):
		return ErrTokenInvalid
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrUsed):
		return ErrTokenUsed
	case errors.Is(err, token.ErrUnavailable):
		return ErrTokenStoreUnavailable
	default:
		return err
	}
}

// mapRefreshErr collapses every refresh-token store failure into the single
// public sentinel so unknown, expired, and replayed tokens are
// indistinguishable.
func mapRefreshErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrNotFound),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrUsed):
		return ErrRefreshInvalid
	case errors.Is(err, token.ErrUnavailable):
		return ErrTokenStoreUnavailable
	default:
		return err
	}
}
