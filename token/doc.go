// Package token models the persisted single-use tokens of the engine:
// refresh tokens and the email-verification / password-reset purpose tokens.
//
// # Design
//
// A [Record] never stores the presented token value, only its SHA-256
// digest. A record is consumable iff used == false and the clock is before
// ExpiresAt; consumption flips used to true exactly once. The used flag is
// monotonic; flipping it is the sole revocation mechanism.
//
// # Architecture boundaries
//
// This package owns the token model, the value codec, and the Redis-backed
// [Store]. The Postgres implementation lives in pgstore and shares the
// sentinel errors declared here.
//
// # What this package must NOT do
//
//   - Interpret token contents. Refresh tokens are verified by the jwt
//     package; purpose tokens are pure lookup capabilities.
//   - Import the root package or any sibling package.
package token
