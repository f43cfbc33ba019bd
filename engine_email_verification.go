package authgate

import (
	"context"

	"github.com/tmarev/authgate/token"
)

// RequestEmailVerification issues a fresh single-use verification token for
// the account and returns it for delivery.
//
// Unknown emails receive a syntactically valid token that is never
// persisted, so the response shape and timing cannot be used to probe which
// addresses are registered. An already verified account returns
// [ErrAccountAlreadyVerified].
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	email = normalizeEmail(email)
	origin := originFromContext(ctx)

	user, found, err := e.userProvider.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !found {
		// Decoy value: same entropy, same shape, never stored.
		return token.NewValue()
	}
	if user.Verified {
		return "", ErrAccountAlreadyVerified
	}

	value, err := e.issuePurposeToken(ctx, user.ID, token.KindEmailVerification, e.config.Tokens.VerificationTTL)
	if err != nil {
		return "", mapTokenErr(err)
	}

	e.metricInc(MetricVerificationRequested)
	e.emitAudit(ctx, EventVerificationRequest, true, user.ID, email, origin, nil, nil)
	return value, nil
}

// VerifyEmail consumes a verification token and marks the owning account
// verified. The consumption and the flag update succeed or fail together:
// a failed update leaves the token unused and presentable again.
//
// Verifying an already verified account returns [ErrAccountAlreadyVerified]
// without consuming the token.
func (e *Engine) VerifyEmail(ctx context.Context, tokenValue string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	origin := originFromContext(ctx)

	record, err := e.tokenStore.Consume(ctx, token.HashValue(tokenValue), token.KindEmailVerification,
		func(ctx context.Context, userID string) error {
			user, found, err := e.userProvider.GetUserByID(ctx, userID)
			if err != nil {
				return err
			}
			if !found {
				return ErrUserNotFound
			}
			if user.Verified {
				return ErrAccountAlreadyVerified
			}
			return e.userProvider.MarkVerified(ctx, userID)
		})
	if err != nil {
		mapped := mapTokenErr(err)
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, EventVerificationFailure, false, "", "", origin, mapped, nil)
		return mapped
	}

	e.metricInc(MetricVerificationSuccess)
	e.emitAudit(ctx, EventVerificationSuccess, true, record.UserID, "", origin, nil, nil)
	return nil
}
