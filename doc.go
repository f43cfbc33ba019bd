// Package authgate provides the authentication and authorization core for a
// user-facing web API backend: credential verification with per-origin login
// throttling, JWT access tokens, persisted single-use refresh tokens,
// single-use email-verification and password-reset tokens, and role-based
// permission resolution with an injectable superadmin policy.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the collaborator interfaces ([UserProvider], [AttemptGuard], [TokenStore])
// and value types. Flow orchestration, attempt counting, and audit dispatch
// live under internal/ and are never exported. Signing, hashing, persisted
// tokens, and permission policy live in the jwt, password, token, and
// permission subpackages.
//
// # What this package must NOT do
//
//   - Own user storage. Credentials and the role/permission graph belong to
//     the host application, reached through [UserProvider] and
//     [RoleProvider]; the pgstore subpackage is a reference implementation.
//   - Store or log plaintext passwords, or persist raw token values (only
//     SHA-256 digests are written at rest).
//   - Perform I/O outside of Engine methods.
//
// # Trust model
//
// Access tokens are stateless and self-verifying; their claims are a cache,
// not a source of truth. [Engine.Authenticate] always re-resolves the live
// user record, and [Engine.HasPermission] resolves roles per request.
package authgate
