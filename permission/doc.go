// Package permission resolves a user's effective permission set from role
// membership and answers authorization checks against it.
//
// # Model
//
// Permissions are opaque case-sensitive strings. Roles are named bundles of
// permissions; a user's effective set is the union of the permission sets of
// every role the user holds. Resolution is recomputed per check from the
// configured RoleProvider, so role or grant changes take effect on the next
// check without invalidation machinery.
//
// # Policies
//
// The Policy interface is the authorization decision point. RolePolicy
// implements the plain union semantics; SuperadminPolicy wraps another
// policy and short-circuits to allow for a fixed set of user ids.
//
// # Architecture boundaries
//
// This package performs no I/O of its own. All reads go through the
// RoleProvider supplied by the caller.
//
// # What this package must NOT do
//
//   - Access Redis or the network directly.
//   - Import the root package, jwt, or token.
//   - Normalize or case-fold permission names.
package permission
