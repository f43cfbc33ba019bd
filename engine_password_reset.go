package authgate

import (
	"context"
	"errors"

	"github.com/tmarev/authgate/password"
	"github.com/tmarev/authgate/token"
)

// RequestPasswordReset issues a single-use reset token for the account and
// returns it for delivery.
//
// Unknown emails receive a syntactically valid token that is never
// persisted, matching the registered-email path in shape and work done, so
// the operation cannot be used to probe which addresses exist.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
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

	value, err := e.issuePurposeToken(ctx, user.ID, token.KindPasswordReset, e.config.Tokens.ResetTTL)
	if err != nil {
		return "", mapTokenErr(err)
	}

	e.metricInc(MetricResetRequested)
	e.emitAudit(ctx, EventResetRequest, true, user.ID, email, origin, nil, nil)
	return value, nil
}

// ResetPassword consumes a reset token and replaces the owning account's
// password. The consumption and the hash update succeed or fail together.
// On success every outstanding refresh token for the account is revoked.
//
// The new password is validated and hashed before the token is touched, so
// a policy violation leaves the token presentable again.
func (e *Engine) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	origin := originFromContext(ctx)

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return ErrPasswordPolicy
		}
		return err
	}

	record, err := e.tokenStore.Consume(ctx, token.HashValue(tokenValue), token.KindPasswordReset,
		func(ctx context.Context, userID string) error {
			if _, found, err := e.userProvider.GetUserByID(ctx, userID); err != nil {
				return err
			} else if !found {
				return ErrUserNotFound
			}
			return e.userProvider.UpdatePasswordHash(ctx, userID, newHash)
		})
	if err != nil {
		mapped := mapTokenErr(err)
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, EventResetFailure, false, "", "", origin, mapped, nil)
		return mapped
	}

	if err := e.tokenStore.DeleteForUser(ctx, record.UserID, token.KindRefresh); err != nil {
		e.warn("authgate: refresh revocation after password reset failed", "err", err)
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, EventResetSuccess, true, record.UserID, "", origin, nil, nil)
	return nil
}
