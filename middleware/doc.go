// Package middleware exposes HTTP middleware adapters for access token and
// permission enforcement built on top of the authgate Engine.
//
// # Guards
//
//   - [Guard] reads the Authorization header, authenticates the bearer
//     token, and injects the result into the request context.
//   - [RequirePermission] layers a permission check on an already guarded
//     route.
//
// Both guards attach the client's RemoteAddr as the request origin so the
// engine's throttling and audit trail see it.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to
// the engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly.
//   - Access Redis or the database.
//   - Make authorization decisions beyond pass/reject from the engine.
package middleware
