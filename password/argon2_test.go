package password

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   8,
	}
}

func newTestHasher(t *testing.T) *Argon2 {
	t.Helper()

	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return hasher
}

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher := newTestHasher(t)

	hash, err := hasher.Hash("correct-password-123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected PHC prefix: %q", hash)
	}

	ok, err := hasher.Verify("correct-password-123", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}

	ok, err = hasher.Verify("wrong-password-123", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	hasher := newTestHasher(t)

	first, err := hasher.Hash("correct-password-123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := hasher.Hash("correct-password-123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashEnforcesMinLength(t *testing.T) {
	hasher := newTestHasher(t)

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("got %v, want ErrTooShort", err)
	}
}

func TestMinLengthCountsBytes(t *testing.T) {
	cfg := testConfig()
	cfg.MinLength = 10
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	// 9 bytes fails, 10 passes. No Unicode normalization applies.
	if _, err := hasher.Hash("123456789"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("9 bytes: got %v, want ErrTooShort", err)
	}
	if _, err := hasher.Hash("1234567890"); err != nil {
		t.Fatalf("10 bytes: %v", err)
	}
}

func TestVerifyUsesEmbeddedParameters(t *testing.T) {
	weak := newTestHasher(t)
	hash, err := weak.Hash("correct-password-123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	strongCfg := testConfig()
	strongCfg.Memory = 16 * 1024
	strongCfg.Time = 2
	strong, err := NewArgon2(strongCfg)
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	// The digest's own parameters drive verification.
	ok, err := strong.Verify("correct-password-123", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("old-parameter digest did not verify under new config")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak := newTestHasher(t)
	hash, err := weak.Hash("correct-password-123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if upgrade, err := weak.NeedsUpgrade(hash); err != nil || upgrade {
		t.Fatalf("same config: upgrade=%v err=%v", upgrade, err)
	}

	strongCfg := testConfig()
	strongCfg.Memory = 16 * 1024
	strong, err := NewArgon2(strongCfg)
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	if upgrade, err := strong.NeedsUpgrade(hash); err != nil || !upgrade {
		t.Fatalf("stronger config: upgrade=%v err=%v", upgrade, err)
	}
}

func TestVerifyRejectsMalformedPHC(t *testing.T) {
	hasher := newTestHasher(t)

	malformed := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}
	for _, input := range malformed {
		if _, err := hasher.Verify("password-123", input); err == nil {
			t.Fatalf("Verify accepted malformed digest %q", input)
		}
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Memory = 1024 },
		func(c *Config) { c.Time = 0 },
		func(c *Config) { c.Parallelism = 0 },
		func(c *Config) { c.SaltLength = 8 },
		func(c *Config) { c.KeyLength = 8 },
		func(c *Config) { c.MinLength = 4 },
	}
	for i, mutate := range cases {
		cfg := testConfig()
		mutate(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("case %d: weak config accepted", i)
		}
	}
}
