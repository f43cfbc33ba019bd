// Package password provides the stateless one-way hasher used for user
// credentials: Argon2id with PHC-format encoded digests.
//
// The hasher is deliberately decoupled from any user entity: it takes a
// plaintext and a stored digest and nothing else. Plaintext is never
// persisted or logged. Verification is constant-time over the derived key.
package password
