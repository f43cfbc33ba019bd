package pgstore

import (
	"context"
	"fmt"

	authgate "github.com/tmarev/authgate"
	"github.com/tmarev/authgate/token"
)

// RolesForUser implements authgate.RoleProvider. Each returned role carries
// its full permission grant list.
func (s *Store) RolesForUser(ctx context.Context, userID string) ([]authgate.RoleRecord, error) {
	const query = `
		SELECT r.name, COALESCE(array_agg(p.name) FILTER (WHERE p.name IS NOT NULL), '{}')
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		GROUP BY r.id, r.name
		ORDER BY r.name`

	rows, err := s.q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: roles for user: %w", err)
	}
	defer rows.Close()

	var roles []authgate.RoleRecord
	for rows.Next() {
		var role authgate.RoleRecord
		if err := rows.Scan(&role.Name, &role.Permissions); err != nil {
			return nil, fmt.Errorf("pgstore: scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: roles for user: %w", err)
	}
	return roles, nil
}

func (s *Store) roleNames(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`

	rows, err := s.q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: role names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("pgstore: scan role name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// EnsureRole creates the role if absent and returns its id.
func (s *Store) EnsureRole(ctx context.Context, name string) (string, error) {
	const query = `
		INSERT INTO roles (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id string
	if err := s.q(ctx).QueryRow(ctx, query, token.NewID(), name).Scan(&id); err != nil {
		return "", fmt.Errorf("pgstore: ensure role: %w", err)
	}
	return id, nil
}

// GrantPermission attaches a permission name to a role, creating the
// permission row if absent.
func (s *Store) GrantPermission(ctx context.Context, roleName, permName string) error {
	roleID, err := s.EnsureRole(ctx, roleName)
	if err != nil {
		return err
	}

	const permQuery = `
		INSERT INTO permissions (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var permID string
	if err := s.q(ctx).QueryRow(ctx, permQuery, token.NewID(), permName).Scan(&permID); err != nil {
		return fmt.Errorf("pgstore: ensure permission: %w", err)
	}

	const linkQuery = `
		INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := s.q(ctx).Exec(ctx, linkQuery, roleID, permID); err != nil {
		return fmt.Errorf("pgstore: grant permission: %w", err)
	}
	return nil
}

// AssignRole attaches a role to a user.
func (s *Store) AssignRole(ctx context.Context, userID, roleName string) error {
	roleID, err := s.EnsureRole(ctx, roleName)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := s.q(ctx).Exec(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("pgstore: assign role: %w", err)
	}
	return nil
}
