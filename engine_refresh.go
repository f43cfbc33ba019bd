package authgate

import (
	"context"

	"github.com/tmarev/authgate/internal/flows"
	"github.com/tmarev/authgate/token"
)

// Refresh exchanges a refresh token for exactly one new access token. The
// presented token is consumed atomically: concurrent presentations of the
// same token yield one success and one [ErrRefreshInvalid], and no
// replacement refresh token is issued.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	result, err := flows.RunRefresh(ctx, refreshToken, flows.RefreshDeps{
		OriginFromContext: originFromContext,
		Now:               e.now,

		ParseRefresh: func(tokenStr string) (string, error) {
			claims, err := e.jwtManager.ParseRefresh(tokenStr, e.now())
			if err != nil {
				return "", err
			}
			return claims.UID, nil
		},

		ConsumeRefresh: func(ctx context.Context, tokenStr string) (string, error) {
			record, err := e.tokenStore.Consume(ctx, token.HashValue(tokenStr), token.KindRefresh, nil)
			if err != nil {
				return "", mapRefreshErr(err)
			}
			return record.UserID, nil
		},

		GetUserByID: func(ctx context.Context, userID string) (flows.LoginUser, bool, error) {
			user, found, err := e.userProvider.GetUserByID(ctx, userID)
			if err != nil {
				return flows.LoginUser{}, false, err
			}
			return loginUser(user), found, nil
		},

		IssueAccess: func(ctx context.Context, user flows.LoginUser) (string, error) {
			return e.issueAccess(UserRecord{
				ID:       user.ID,
				Email:    user.Email,
				FullName: user.FullName,
				Verified: user.Verified,
				Roles:    user.Roles,
			})
		},

		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitFlowAudit,

		Metrics: flows.RefreshMetrics{
			RefreshSuccess: int(MetricRefreshSuccess),
			RefreshFailure: int(MetricRefreshFailure),
		},
		Events: flows.RefreshEvents{
			RefreshSuccess: EventRefreshSuccess,
			RefreshFailure: EventRefreshFailure,
		},
		Errors: flows.RefreshErrors{
			EngineNotReady: ErrEngineNotReady,
			RefreshInvalid: ErrRefreshInvalid,
			UserNotFound:   ErrUserNotFound,
		},
	})
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken: result.AccessToken,
		UserID:      result.UserID,
	}, nil
}
