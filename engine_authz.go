package authgate

import (
	"context"

	"github.com/tmarev/authgate/permission"
)

// HasPermission reports whether the user may perform the named permission
// under the configured policy. Superadmin ids pass every check, including
// permission names no role has ever granted. The error return is for
// backend failures only; a clean denial is (false, nil).
func (e *Engine) HasPermission(ctx context.Context, userID, perm string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}

	allowed, err := e.policy.HasPermission(ctx, userID, perm)
	if err != nil {
		return false, err
	}
	if !allowed {
		e.metricInc(MetricPermissionDenied)
		e.emitAudit(ctx, EventPermissionDenied, false, userID, "", originFromContext(ctx), ErrPermissionDenied, func() map[string]string {
			return map[string]string{"permission": perm}
		})
	}
	return allowed, nil
}

// RequirePermission is the error-returning form of [Engine.HasPermission]:
// a clean denial becomes [ErrPermissionDenied].
func (e *Engine) RequirePermission(ctx context.Context, userID, perm string) error {
	allowed, err := e.HasPermission(ctx, userID, perm)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

// PermissionsForUser returns the user's effective permission set: the
// deduplicated, sorted union of every held role's grants. Superadmin status
// does not expand the listing; the bypass lives in the check, not the set.
func (e *Engine) PermissionsForUser(ctx context.Context, userID string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.roleProvider == nil {
		return nil, ErrEngineNotReady
	}

	resolver := permission.NewResolver(roleProviderAdapter{e.roleProvider})
	return resolver.Resolve(ctx, userID)
}
