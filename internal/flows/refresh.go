package flows

import (
	"context"
	"time"
)

// RefreshResult is the flow-local refresh response shape. Exactly one access
// token and no new refresh token: refresh tokens are not rotated.
type RefreshResult struct {
	AccessToken string
	UserID      string
}

// RefreshMetrics carries metric ids needed by the refresh flow.
type RefreshMetrics struct {
	RefreshSuccess int
	RefreshFailure int
}

// RefreshEvents carries audit event names used by the refresh flow.
type RefreshEvents struct {
	RefreshSuccess string
	RefreshFailure string
}

// RefreshErrors carries host-level sentinel errors used by the refresh flow.
type RefreshErrors struct {
	EngineNotReady error
	RefreshInvalid error
	UserNotFound   error
}

// RefreshDeps captures the refresh flow dependencies.
type RefreshDeps struct {
	OriginFromContext func(context.Context) string
	Now               func() time.Time

	// ParseRefresh verifies the signature and expiry of the presented token
	// and returns the uid it was minted for.
	ParseRefresh func(tokenStr string) (userID string, err error)

	// ConsumeRefresh atomically marks the persisted row used. It must fail
	// for unknown, expired, and already-used digests; the three cases are
	// collapsed by the flow into one sentinel.
	ConsumeRefresh func(ctx context.Context, tokenStr string) (userID string, err error)

	GetUserByID func(ctx context.Context, userID string) (LoginUser, bool, error)

	IssueAccess func(ctx context.Context, user LoginUser) (string, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, action string, success bool, userID, email, origin string, err error, meta func() map[string]string)

	Metrics RefreshMetrics
	Events  RefreshEvents
	Errors  RefreshErrors
}

// RunRefresh executes the refresh flow: verify the token signature, consume
// the persisted single-use row, reload the user, and mint one access token.
//
// Signature failures and consume failures are indistinguishable to the
// caller. The uid claimed by the token must match the uid of the consumed
// row; a mismatch is treated as an invalid token.
func RunRefresh(ctx context.Context, tokenStr string, deps RefreshDeps) (*RefreshResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, string, error, func() map[string]string) {}
	}
	if deps.OriginFromContext == nil {
		deps.OriginFromContext = func(context.Context) string { return "" }
	}
	if deps.ParseRefresh == nil ||
		deps.ConsumeRefresh == nil ||
		deps.GetUserByID == nil ||
		deps.IssueAccess == nil {
		return nil, deps.Errors.EngineNotReady
	}

	origin := deps.OriginFromContext(ctx)

	fail := func(userID, reason string, cause error) (*RefreshResult, error) {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, userID, "", origin, cause, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, cause
	}

	claimedUID, err := deps.ParseRefresh(tokenStr)
	if err != nil {
		return fail("", "signature", deps.Errors.RefreshInvalid)
	}

	storedUID, err := deps.ConsumeRefresh(ctx, tokenStr)
	if err != nil {
		return fail(claimedUID, "consume", err)
	}
	if storedUID != claimedUID {
		return fail(claimedUID, "uid_mismatch", deps.Errors.RefreshInvalid)
	}

	user, found, err := deps.GetUserByID(ctx, storedUID)
	if err != nil {
		return nil, err
	}
	if !found {
		return fail(storedUID, "user_deleted", deps.Errors.UserNotFound)
	}

	access, err := deps.IssueAccess(ctx, user)
	if err != nil {
		return nil, err
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, user.ID, user.Email, origin, nil, nil)

	return &RefreshResult{
		AccessToken: access,
		UserID:      user.ID,
	}, nil
}
