// Package guard implements the login attempt guard: a per (email, origin)
// failure counter with a time-boxed lockout.
//
// The counter is a small state machine. Clear (no row or counter zero) moves
// to Accumulating on a failure; reaching the configured maximum enters
// Locked. Admission while Locked fails until the lock duration has elapsed
// since the last failure, at which point the counter resets to zero and the
// attempt is admitted. A successful login resets the counter from any state.
//
// Increments use HINCRBY, so concurrent failures for the same key cannot
// lose more than the inherent read-modify-write on the timestamp field; the
// guard is a throttling mechanism, not a hard security boundary.
package guard
