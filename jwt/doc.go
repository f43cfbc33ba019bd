// Package jwt signs and verifies the engine's two signed token families.
//
// Access tokens are stateless and self-contained: uid, email, display name,
// verification flag, and role names, with a minutes-scale expiry. Refresh
// tokens carry only the uid and are signed with a distinct secret; the
// engine additionally persists a digest of each refresh token so that it can
// be consumed exactly once.
//
// Verification pins the configured algorithm before key lookup: tokens
// signed with any other method are rejected outright. Expiry, issuer, and
// optional leeway are enforced on every parse.
package jwt
