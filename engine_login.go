package authgate

import (
	"context"
	"errors"
	"strings"

	"github.com/tmarev/authgate/internal/flows"
	"github.com/tmarev/authgate/internal/guard"
	"github.com/tmarev/authgate/token"
)

// Login verifies the credentials and, on success, issues an access token
// and a persisted single-use refresh token.
//
// Attempts are throttled per (email, origin) key; attach the origin with
// [WithOrigin]. Unknown email and wrong password are indistinguishable to
// the caller and both return [ErrInvalidCredentials]. A locked key returns
// [ErrTooManyAttempts] without touching the user database.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)

	var issuedUser UserRecord

	result, err := flows.RunLogin(ctx, email, password, flows.LoginDeps{
		PasswordUpgradeOnLogin: e.config.Password.UpgradeOnLogin,

		OriginFromContext: originFromContext,
		Now:               e.now,

		CheckAdmission: e.guard.CheckAdmission,
		RecordFailure:  e.guard.RecordFailure,
		ResetGuard:     e.guard.Reset,
		// Custom guards signal a lockout with the public sentinel; the
		// built-in Redis guard uses its internal one.
		GuardIsLocked: func(err error) bool {
			return errors.Is(err, guard.ErrLocked) || errors.Is(err, ErrTooManyAttempts)
		},

		GetUserByEmail: func(ctx context.Context, email string) (flows.LoginUser, bool, error) {
			user, found, err := e.userProvider.GetUserByEmail(ctx, email)
			if err != nil {
				return flows.LoginUser{}, false, err
			}
			if found {
				issuedUser = user
			}
			return loginUser(user), found, nil
		},

		VerifyPassword:       e.passwordHash.Verify,
		PasswordNeedsUpgrade: e.passwordHash.NeedsUpgrade,
		HashPassword:         e.passwordHash.Hash,
		UpdatePasswordHash:   e.userProvider.UpdatePasswordHash,

		IssueTokens: func(ctx context.Context, user flows.LoginUser) (string, string, error) {
			return e.issueTokenPair(ctx, issuedUser)
		},

		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitFlowAudit,
		Warn:      e.warn,

		Metrics: flows.LoginMetrics{
			LoginSuccess: int(MetricLoginSuccess),
			LoginFailure: int(MetricLoginFailure),
			LoginLocked:  int(MetricLoginLocked),
		},
		Events: flows.LoginEvents{
			LoginSuccess: EventLoginSuccess,
			LoginFailure: EventLoginFailure,
			LoginLocked:  EventLoginLocked,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			TooManyAttempts:    ErrTooManyAttempts,
			GuardUnavailable:   ErrGuardUnavailable,
		},
	})
	if err != nil {
		return nil, err
	}

	if recorder, ok := e.userProvider.(ActivityRecorder); ok {
		if err := recorder.RecordLogin(ctx, issuedUser.ID, originFromContext(ctx), e.now()); err != nil {
			e.warn("authgate: login activity stamp failed", "err", err)
		}
	}

	return &LoginResult{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         issuedUser.Safe(),
	}, nil
}

// Logout stamps last-online when the provider records activity and emits
// the logout audit event and metric. Outstanding refresh tokens keep working
// until they expire or are consumed; callers that want a hard logout should
// follow up with [Engine.RevokeRefreshTokens].
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if recorder, ok := e.userProvider.(ActivityRecorder); ok {
		if err := recorder.RecordLogout(ctx, userID, e.now()); err != nil {
			e.warn("authgate: logout activity stamp failed", "err", err)
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, EventLogout, true, userID, "", originFromContext(ctx), nil, nil)
	return nil
}

// RevokeRefreshTokens invalidates every outstanding refresh token for the
// user by deleting the persisted rows. Already-issued access tokens stay
// valid until they expire.
func (e *Engine) RevokeRefreshTokens(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.tokenStore.DeleteForUser(ctx, userID, token.KindRefresh); err != nil {
		return mapTokenErr(err)
	}
	return nil
}

// emitFlowAudit adapts the engine audit emitter to the flows signature,
// folding the flow's metadata reason into the event.
func (e *Engine) emitFlowAudit(ctx context.Context, action string, success bool, userID, email, origin string, cause error, meta func() map[string]string) {
	e.emitAudit(ctx, action, success, userID, email, origin, cause, meta)
}

func loginUser(user UserRecord) flows.LoginUser {
	return flows.LoginUser{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		PasswordHash: user.PasswordHash,
		Verified:     user.Verified,
		Roles:        user.Roles,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
