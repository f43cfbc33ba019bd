package authgate

import (
	"errors"
	"time"
)

// Config defines the engine's tunable behavior. Config instances are
// intended to be configured during initialization and then treated as
// immutable.
type Config struct {
	JWT        JWTConfig
	Password   PasswordConfig
	LoginGuard LoginGuardConfig
	Tokens     TokensConfig
	Authz      AuthzConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig carries the signing material and token lifetimes. AccessSecret
// and RefreshSecret must be distinct; Validate rejects shared material.
type JWTConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the Argon2id cost parameters and the plaintext
// length policy.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

/*
====================================
LOGIN GUARD CONFIG
====================================
*/

// LoginGuardConfig carries the lockout thresholds. A key locks after
// MaxAttempts consecutive failures and stays locked until LockDuration has
// elapsed since the most recent failure.
type LoginGuardConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
	RedisPrefix  string
	Retention    time.Duration
}

/*
====================================
TOKENS CONFIG
====================================
*/

// TokensConfig carries lifetimes and storage layout for the persisted
// single-use token families.
type TokensConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	RedisPrefix     string
	RetentionGrace  time.Duration
}

/*
====================================
AUTHZ CONFIG
====================================
*/

// AuthzConfig carries the authorization policy knobs. SuperadminIDs are
// user ids that pass every permission check without a role lookup.
type AuthzConfig struct {
	SuperadminIDs []string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metric counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the recommended baseline. Secrets are left empty
// and must be set by the caller before Build.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "hs256",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Leeway:        30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      8,
			UpgradeOnLogin: true,
		},
		LoginGuard: LoginGuardConfig{
			MaxAttempts:  5,
			LockDuration: 15 * time.Minute,
			Retention:    24 * time.Hour,
		},
		Tokens: TokensConfig{
			VerificationTTL: 30 * 24 * time.Hour,
			ResetTTL:        24 * time.Hour,
			RetentionGrace:  24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internally inconsistent or unsafe
// values. Build calls it; callers can also invoke it directly.
func (c Config) Validate() error {
	switch c.JWT.SigningMethod {
	case "hs256", "ed25519":
	case "":
		return errors.New("authgate: JWT signing method is required")
	default:
		return errors.New("authgate: unsupported JWT signing method")
	}
	if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
		return errors.New("authgate: JWT access and refresh secrets are required")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("authgate: JWT access and refresh secrets must be distinct")
	}
	if c.JWT.SigningMethod == "hs256" && (len(c.JWT.AccessSecret) < 32 || len(c.JWT.RefreshSecret) < 32) {
		return errors.New("authgate: hs256 secrets must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("authgate: JWT TTLs must be positive")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return errors.New("authgate: access TTL must be shorter than refresh TTL")
	}

	if c.LoginGuard.MaxAttempts <= 0 {
		return errors.New("authgate: login guard max attempts must be positive")
	}
	if c.LoginGuard.LockDuration <= 0 {
		return errors.New("authgate: login guard lock duration must be positive")
	}

	if c.Tokens.VerificationTTL <= 0 || c.Tokens.ResetTTL <= 0 {
		return errors.New("authgate: token TTLs must be positive")
	}

	return nil
}
