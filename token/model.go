package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the persisted token families.
//
// Kind values are part of the storage schema and must not be renamed once
// rows exist.
type Kind string

const (
	// KindRefresh is a persisted refresh token. The signed token string is
	// issued to the client; only its digest is stored.
	KindRefresh Kind = "refresh"
	// KindEmailVerification is a long-lived opaque token mailed to the user
	// to confirm ownership of an email address.
	KindEmailVerification Kind = "email_verification"
	// KindPasswordReset is a short-lived opaque token mailed to the user to
	// authorize a password reset.
	KindPasswordReset Kind = "password_reset"
)

const valueSize = 32

// Record is a persisted token row. ValueHash is the SHA-256 digest of the
// token value handed to the client.
type Record struct {
	ID        string
	UserID    string
	Kind      Kind
	ValueHash [32]byte
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Consumable reports whether the record may still be consumed at now.
func (r Record) Consumable(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}

// NewValue generates an opaque token value with 256 bits of entropy,
// encoded as unpadded base64url.
func NewValue() (string, error) {
	var raw [valueSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashValue computes the at-rest digest of a presented token value.
func HashValue(value string) [32]byte {
	return sha256.Sum256([]byte(value))
}

// NewID generates a record id. Record ids are opaque and never shown to
// clients.
func NewID() string {
	return uuid.NewString()
}
