package permission

import (
	"context"
	"fmt"
	"sort"
)

// Role is a named bundle of permission strings as loaded from the backing
// store.
type Role struct {
	Name        string
	Permissions []string
}

// RoleProvider loads the roles held by a user. Implementations live in the
// persistence layer; this package only consumes them.
type RoleProvider interface {
	RolesForUser(ctx context.Context, userID string) ([]Role, error)
}

// Resolver computes effective permission sets. Safe for concurrent use.
type Resolver struct {
	provider RoleProvider
}

// NewResolver creates a resolver over the given provider.
func NewResolver(provider RoleProvider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve returns the union of the user's role permission sets, deduplicated
// and sorted. A user with no roles resolves to an empty set, not an error.
func (r *Resolver) Resolve(ctx context.Context, userID string) ([]string, error) {
	roles, err := r.provider.RolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}

	seen := make(map[string]struct{})
	for _, role := range roles {
		for _, perm := range role.Permissions {
			seen[perm] = struct{}{}
		}
	}

	perms := make([]string, 0, len(seen))
	for perm := range seen {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms, nil
}

// Has reports whether the user's effective set contains the permission.
// Comparison is exact: names are case-sensitive and never normalized.
func (r *Resolver) Has(ctx context.Context, userID, perm string) (bool, error) {
	roles, err := r.provider.RolesForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("resolve roles: %w", err)
	}

	for _, role := range roles {
		for _, granted := range role.Permissions {
			if granted == perm {
				return true, nil
			}
		}
	}
	return false, nil
}

// RoleNames returns the names of the roles the user holds, in provider order.
func (r *Resolver) RoleNames(ctx context.Context, userID string) ([]string, error) {
	roles, err := r.provider.RolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names, nil
}
