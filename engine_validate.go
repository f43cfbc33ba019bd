package authgate

import (
	"context"
)

// Authenticate verifies an access token and returns the identity it was
// minted for. Malformed, badly-signed, and expired tokens, and tokens whose
// user has since been deleted, all return [ErrUnauthorized].
//
// The returned claims are a snapshot from issuance time; role changes after
// issuance are only visible once the client refreshes.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	start := e.now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricAuthenticateLatency, e.now().Sub(start))
		}
	}()

	claims, err := e.jwtManager.ParseAccess(accessToken, e.now())
	if err != nil {
		return nil, ErrUnauthorized
	}

	if _, found, err := e.userProvider.GetUserByID(ctx, claims.UID); err != nil {
		return nil, err
	} else if !found {
		return nil, ErrUnauthorized
	}

	return &AuthResult{
		UserID:   claims.UID,
		Email:    claims.Email,
		FullName: claims.Name,
		Verified: claims.Verified,
		Roles:    claims.Roles,
	}, nil
}
