package authgate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func loginForRefresh(t *testing.T, engine *Engine, provider *mockUserProvider) *LoginResult {
	t.Helper()

	seedUser(t, engine, provider, "u1", "alice@example.com", "correct-password-123", true, nil)
	result, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return result
}

func TestRefreshMintsExactlyOneAccessToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	login := loginForRefresh(t, engine, provider)

	clock.Advance(time.Minute)

	result, err := engine.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if result.AccessToken == login.AccessToken {
		t.Fatal("refresh must mint a new access token")
	}
	if result.UserID != "u1" {
		t.Fatalf("unexpected user id %q", result.UserID)
	}

	if _, err := engine.Authenticate(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("Authenticate of refreshed token failed: %v", err)
	}
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	login := loginForRefresh(t, engine, provider)

	if _, err := engine.Refresh(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}
	if _, err := engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("second Refresh: got %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshConcurrentPresentationSingleWinner(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	login := loginForRefresh(t, engine, provider)

	const presenters = 8

	var wg sync.WaitGroup
	errs := make([]error, presenters)

	for i := 0; i < presenters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Refresh(context.Background(), login.RefreshToken)
		}(i)
	}
	wg.Wait()

	var successes int
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrRefreshInvalid):
		default:
			t.Fatalf("presenter %d: unexpected error %v", i, err)
		}
	}
	if successes != 1 {
		t.Fatalf("got %d successful presentations, want exactly 1", successes)
	}
}

func TestRefreshRejectsGarbageAndForeignTokens(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	login := loginForRefresh(t, engine, provider)

	if _, err := engine.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("garbage: got %v, want ErrRefreshInvalid", err)
	}

	// An access token is signed with the other secret and must not pass as
	// a refresh token.
	if _, err := engine.Refresh(context.Background(), login.AccessToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("access-as-refresh: got %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshExpiredTokenRejected(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, func(cfg *Config) {
		cfg.JWT.RefreshTTL = time.Hour
		cfg.JWT.AccessTTL = time.Minute
	})
	login := loginForRefresh(t, engine, provider)

	clock.Advance(2 * time.Hour)

	if _, err := engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("got %v, want ErrRefreshInvalid for expired token", err)
	}
}

func TestRefreshDeletedUserRejected(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, nil)
	login := loginForRefresh(t, engine, provider)

	provider.mu.Lock()
	delete(provider.users, "u1")
	provider.mu.Unlock()

	if _, err := engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestAuthenticateExpiredAccessToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	provider := newMockUserProvider()
	clock := newTestClock()
	engine := newTestEngine(t, rdb, provider, clock, func(cfg *Config) {
		cfg.JWT.AccessTTL = time.Minute
		cfg.JWT.Leeway = 0
	})
	login := loginForRefresh(t, engine, provider)

	clock.Advance(2 * time.Minute)

	if _, err := engine.Authenticate(context.Background(), login.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized for expired access token", err)
	}
}
