package authgate

import (
	"context"
	"errors"

	"github.com/tmarev/authgate/password"
	"github.com/tmarev/authgate/token"
)

// CreateAccountInput is passed to [Engine.CreateAccount]. Password is the
// plaintext; it is hashed before the provider sees it.
type CreateAccountInput struct {
	Email    string
	FullName string
	Password string
}

// CreateAccount registers a new unverified account and issues its email
// verification token. The token is returned to the caller for delivery;
// the engine never sends mail.
//
// A duplicate email returns [ErrAccountExists]. A password below the
// configured minimum length returns [ErrPasswordPolicy].
func (e *Engine) CreateAccount(ctx context.Context, input CreateAccountInput) (*CreateAccountResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	origin := originFromContext(ctx)

	hash, err := e.passwordHash.Hash(input.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, ErrPasswordPolicy
		}
		return nil, err
	}

	if _, found, err := e.userProvider.GetUserByEmail(ctx, email); err != nil {
		return nil, err
	} else if found {
		e.metricInc(MetricAccountDuplicate)
		e.emitAudit(ctx, EventAccountDuplicate, false, "", email, origin, ErrAccountExists, nil)
		return nil, ErrAccountExists
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:        email,
		FullName:     input.FullName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	verification, err := e.issuePurposeToken(ctx, user.ID, token.KindEmailVerification, e.config.Tokens.VerificationTTL)
	if err != nil {
		return nil, mapTokenErr(err)
	}

	e.metricInc(MetricAccountCreated)
	e.metricInc(MetricVerificationRequested)
	e.emitAudit(ctx, EventAccountCreated, true, user.ID, email, origin, nil, nil)

	return &CreateAccountResult{
		User:              user.Safe(),
		VerificationToken: verification,
	}, nil
}

// ChangePassword replaces the password of an authenticated user after
// re-verifying the current one. All outstanding refresh tokens are revoked
// so stolen refresh material dies with the old password.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	origin := originFromContext(ctx)

	user, found, err := e.userProvider.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}

	ok, err := e.passwordHash.Verify(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, EventPasswordChangeFailed, false, userID, user.Email, origin, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "current_password_mismatch"}
		})
		return ErrInvalidCredentials
	}

	if newPassword == currentPassword {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, EventPasswordChangeFailed, false, userID, user.Email, origin, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return ErrPasswordPolicy
		}
		return err
	}

	if err := e.userProvider.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return err
	}

	if err := e.tokenStore.DeleteForUser(ctx, userID, token.KindRefresh); err != nil {
		e.warn("authgate: refresh revocation after password change failed", "err", err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, EventPasswordChanged, true, userID, user.Email, origin, nil, nil)
	return nil
}
