package permission

import (
	"context"
	"errors"
	"testing"
)

type staticProvider struct {
	roles map[string][]Role
	err   error
}

func (p *staticProvider) RolesForUser(_ context.Context, userID string) ([]Role, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.roles[userID], nil
}

func testProvider() *staticProvider {
	return &staticProvider{roles: map[string][]Role{
		"u1": {
			{Name: "editor", Permissions: []string{"articles:write", "articles:read"}},
			{Name: "moderator", Permissions: []string{"articles:read", "comments:delete"}},
		},
		"u2": {
			{Name: "viewer", Permissions: nil},
		},
	}}
}

func TestResolveUnionDeduplicatedSorted(t *testing.T) {
	resolver := NewResolver(testProvider())

	perms, err := resolver.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"articles:read", "articles:write", "comments:delete"}
	if len(perms) != len(want) {
		t.Fatalf("got %v, want %v", perms, want)
	}
	for i := range want {
		if perms[i] != want[i] {
			t.Fatalf("got %v, want %v", perms, want)
		}
	}
}

func TestResolveNoRolesIsEmptyNotError(t *testing.T) {
	resolver := NewResolver(testProvider())

	perms, err := resolver.Resolve(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("got %v, want empty", perms)
	}
}

func TestResolveRoleWithoutPermissions(t *testing.T) {
	resolver := NewResolver(testProvider())

	perms, err := resolver.Resolve(context.Background(), "u2")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("got %v, want empty", perms)
	}
}

func TestHasExactMatchOnly(t *testing.T) {
	resolver := NewResolver(testProvider())

	cases := []struct {
		perm string
		want bool
	}{
		{"articles:read", true},
		{"comments:delete", true},
		{"Articles:Read", false},
		{"articles", false},
		{"articles:read:extra", false},
	}
	for _, tc := range cases {
		got, err := resolver.Has(context.Background(), "u1", tc.perm)
		if err != nil {
			t.Fatalf("Has(%q) failed: %v", tc.perm, err)
		}
		if got != tc.want {
			t.Fatalf("Has(%q) = %v, want %v", tc.perm, got, tc.want)
		}
	}
}

func TestRoleNamesInProviderOrder(t *testing.T) {
	resolver := NewResolver(testProvider())

	names, err := resolver.RoleNames(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RoleNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "editor" || names[1] != "moderator" {
		t.Fatalf("got %v", names)
	}
}

func TestProviderErrorsPropagate(t *testing.T) {
	backend := errors.New("store down")
	resolver := NewResolver(&staticProvider{err: backend})

	if _, err := resolver.Resolve(context.Background(), "u1"); !errors.Is(err, backend) {
		t.Fatalf("Resolve: got %v, want wrapped backend error", err)
	}
	if _, err := resolver.Has(context.Background(), "u1", "articles:read"); !errors.Is(err, backend) {
		t.Fatalf("Has: got %v, want wrapped backend error", err)
	}
}

func TestRolePolicyDelegatesToResolver(t *testing.T) {
	policy := NewRolePolicy(testProvider())

	allowed, err := policy.HasPermission(context.Background(), "u1", "articles:write")
	if err != nil {
		t.Fatalf("HasPermission failed: %v", err)
	}
	if !allowed {
		t.Fatal("granted permission denied")
	}

	allowed, err = policy.HasPermission(context.Background(), "u1", "users:manage")
	if err != nil {
		t.Fatalf("HasPermission failed: %v", err)
	}
	if allowed {
		t.Fatal("ungranted permission allowed")
	}
}

func TestSuperadminPolicyBypass(t *testing.T) {
	policy := NewSuperadminPolicy([]string{"root-1"}, NewRolePolicy(testProvider()))

	allowed, err := policy.HasPermission(context.Background(), "root-1", "nuclear:launch")
	if err != nil {
		t.Fatalf("HasPermission failed: %v", err)
	}
	if !allowed {
		t.Fatal("superadmin denied")
	}

	// Non-superadmins fall through to the wrapped policy.
	allowed, err = policy.HasPermission(context.Background(), "u1", "articles:read")
	if err != nil {
		t.Fatalf("HasPermission failed: %v", err)
	}
	if !allowed {
		t.Fatal("wrapped grant lost")
	}
	allowed, err = policy.HasPermission(context.Background(), "u1", "nuclear:launch")
	if err != nil {
		t.Fatalf("HasPermission failed: %v", err)
	}
	if allowed {
		t.Fatal("regular user inherited the bypass")
	}
}

func TestSuperadminPolicySkipsProviderEntirely(t *testing.T) {
	backend := errors.New("store down")
	policy := NewSuperadminPolicy([]string{"root-1"}, NewRolePolicy(&staticProvider{err: backend}))

	// The bypass must not touch the failing backend.
	allowed, err := policy.HasPermission(context.Background(), "root-1", "anything")
	if err != nil {
		t.Fatalf("HasPermission failed: %v", err)
	}
	if !allowed {
		t.Fatal("superadmin denied")
	}

	if _, err := policy.HasPermission(context.Background(), "u1", "anything"); !errors.Is(err, backend) {
		t.Fatalf("got %v, want wrapped backend error", err)
	}
}
