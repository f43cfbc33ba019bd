package flows

import (
	"context"
	"fmt"
	"time"
)

// LoginUser is the flow-local user model. The password hash never leaves
// this struct for the caller; flows only pass it to VerifyPassword.
type LoginUser struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Verified     bool
	Roles        []string
}

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// LoginMetrics carries metric ids needed by the login flow.
type LoginMetrics struct {
	LoginSuccess int
	LoginFailure int
	LoginLocked  int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
	LoginLocked  string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	TooManyAttempts    error
	GuardUnavailable   error
}

// LoginDeps captures the login flow dependencies.
type LoginDeps struct {
	PasswordUpgradeOnLogin bool

	OriginFromContext func(context.Context) string
	Now               func() time.Time

	CheckAdmission func(ctx context.Context, email, origin string) error
	RecordFailure  func(ctx context.Context, email, origin string) error
	ResetGuard     func(ctx context.Context, email, origin string) error
	GuardIsLocked  func(error) bool

	GetUserByEmail func(ctx context.Context, email string) (LoginUser, bool, error)

	VerifyPassword       func(password, hash string) (bool, error)
	PasswordNeedsUpgrade func(hash string) (bool, error)
	HashPassword         func(password string) (string, error)
	UpdatePasswordHash   func(ctx context.Context, userID, hash string) error

	IssueTokens func(ctx context.Context, user LoginUser) (access, refresh string, err error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, action string, success bool, userID, email, origin string, err error, meta func() map[string]string)
	Warn      func(msg string, args ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin executes the credential verification flow.
//
// The guard is consulted before any credential work; a locked key fails
// without a user lookup. Unknown email, wrong password, and empty password
// all record a failure against the (email, origin) key and surface the same
// InvalidCredentials sentinel. A verified success resets the guard counter.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.OriginFromContext == nil {
		deps.OriginFromContext = func(context.Context) string { return "" }
	}
	if deps.GetUserByEmail == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueTokens == nil {
		return nil, deps.Errors.EngineNotReady
	}

	origin := deps.OriginFromContext(ctx)

	if deps.CheckAdmission != nil {
		if err := deps.CheckAdmission(ctx, email, origin); err != nil {
			if deps.GuardIsLocked != nil && deps.GuardIsLocked(err) {
				deps.MetricInc(deps.Metrics.LoginLocked)
				deps.EmitAudit(ctx, deps.Events.LoginLocked, false, "", email, origin, deps.Errors.TooManyAttempts, nil)
				return nil, deps.Errors.TooManyAttempts
			}
			// Keep the backend cause visible to operators; the sentinel
			// stays the errors.Is target.
			return nil, fmt.Errorf("%w: %v", deps.Errors.GuardUnavailable, err)
		}
	}

	fail := func(userID, reason string) (*LoginResult, error) {
		if deps.RecordFailure != nil {
			if err := deps.RecordFailure(ctx, email, origin); err != nil {
				deps.Warn("authgate: login failure not recorded", "err", err)
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, email, origin, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if password == "" {
		return fail("", "empty_password")
	}

	user, found, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !found {
		return fail("", "user_not_found")
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return fail(user.ID, "password_mismatch")
	}

	if deps.PasswordUpgradeOnLogin && deps.PasswordNeedsUpgrade != nil {
		if needsUpgrade, err := deps.PasswordNeedsUpgrade(user.PasswordHash); err == nil && needsUpgrade {
			if upgradedHash, err := deps.HashPassword(password); err == nil {
				if err := deps.UpdatePasswordHash(ctx, user.ID, upgradedHash); err != nil {
					deps.Warn("authgate: password hash upgrade update failed", "err", err)
				}
			} else {
				deps.Warn("authgate: password hash upgrade generation failed", "err", err)
			}
		}
	}
	password = ""

	if deps.ResetGuard != nil {
		if err := deps.ResetGuard(ctx, email, origin); err != nil {
			deps.Warn("authgate: login guard reset failed", "err", err)
		}
	}

	access, refresh, err := deps.IssueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.ID, email, origin, nil, nil)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user.ID,
	}, nil
}
