package permission

import "context"

// Policy is the authorization decision point. Implementations must be safe
// for concurrent use.
type Policy interface {
	// HasPermission reports whether userID is allowed the named permission.
	// The error return is for backend failures only; a clean denial is
	// (false, nil).
	HasPermission(ctx context.Context, userID, perm string) (bool, error)
}

// RolePolicy grants a permission iff some role held by the user grants it.
type RolePolicy struct {
	resolver *Resolver
}

// NewRolePolicy creates the plain role-union policy.
func NewRolePolicy(provider RoleProvider) *RolePolicy {
	return &RolePolicy{resolver: NewResolver(provider)}
}

// HasPermission implements Policy.
func (p *RolePolicy) HasPermission(ctx context.Context, userID, perm string) (bool, error) {
	return p.resolver.Has(ctx, userID, perm)
}

// SuperadminPolicy short-circuits every check to allow for a fixed set of
// user ids and delegates everything else to the wrapped policy. The id set
// is captured at construction and never consulted from storage.
type SuperadminPolicy struct {
	ids  map[string]struct{}
	next Policy
}

// NewSuperadminPolicy wraps next with a bypass for the given user ids.
func NewSuperadminPolicy(userIDs []string, next Policy) *SuperadminPolicy {
	ids := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		ids[id] = struct{}{}
	}
	return &SuperadminPolicy{ids: ids, next: next}
}

// HasPermission implements Policy. Superadmins are allowed every permission,
// including names no role has ever granted.
func (p *SuperadminPolicy) HasPermission(ctx context.Context, userID, perm string) (bool, error) {
	if _, ok := p.ids[userID]; ok {
		return true, nil
	}
	return p.next.HasPermission(ctx, userID, perm)
}
