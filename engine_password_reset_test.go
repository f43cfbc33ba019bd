package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordResetFlow(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	seedUser(t, engine, provider, "u1", "alice@example.com", "old-password-123", true, nil)

	value, err := engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if err := engine.ResetPassword(context.Background(), value, "new-password-456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := engine.Login(context.Background(), "alice@example.com", "old-password-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	if _, err := engine.Login(context.Background(), "alice@example.com", "new-password-456"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestPasswordResetTokenSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	seedUser(t, engine, provider, "u1", "alice@example.com", "old-password-123", true, nil)

	value, err := engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if err := engine.ResetPassword(context.Background(), value, "new-password-456"); err != nil {
		t.Fatalf("first ResetPassword failed: %v", err)
	}
	if err := engine.ResetPassword(context.Background(), value, "another-password-789"); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("second ResetPassword: got %v, want ErrTokenUsed", err)
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, func(cfg *Config) {
		cfg.Tokens.ResetTTL = time.Hour
	})
	seedUser(t, engine, provider, "u1", "alice@example.com", "old-password-123", true, nil)

	value, err := engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	clock.Advance(2 * time.Hour)

	if err := engine.ResetPassword(context.Background(), value, "new-password-456"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
	if _, err := engine.Login(context.Background(), "alice@example.com", "old-password-123"); err != nil {
		t.Fatalf("old password must survive an expired reset: %v", err)
	}
}

func TestPasswordResetPolicyViolationLeavesTokenPresentable(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	seedUser(t, engine, provider, "u1", "alice@example.com", "old-password-123", true, nil)

	value, err := engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if err := engine.ResetPassword(context.Background(), value, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("got %v, want ErrPasswordPolicy", err)
	}

	// The rejected attempt must not have consumed the token.
	if err := engine.ResetPassword(context.Background(), value, "new-password-456"); err != nil {
		t.Fatalf("token was consumed by the rejected attempt: %v", err)
	}
}

func TestPasswordResetUnknownEmailReturnsDecoy(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)

	decoy, err := engine.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if decoy == "" {
		t.Fatal("expected a decoy token value")
	}
	if err := engine.ResetPassword(context.Background(), decoy, "new-password-456"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("decoy: got %v, want ErrTokenInvalid", err)
	}
}

func TestPasswordResetRevokesRefreshTokens(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	seedUser(t, engine, provider, "u1", "alice@example.com", "old-password-123", true, nil)

	login, err := engine.Login(context.Background(), "alice@example.com", "old-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	value, err := engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if err := engine.ResetPassword(context.Background(), value, "new-password-456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("got %v, want ErrRefreshInvalid after reset", err)
	}
}
