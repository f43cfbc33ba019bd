package authgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// testClock is a settable time source shared by an engine and its test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// mockUserProvider is a map-backed UserProvider and RoleProvider.
type mockUserProvider struct {
	mu    sync.Mutex
	users map[string]UserRecord
	roles map[string][]RoleRecord

	updateHashErr  error
	markVerifyErr  error
	passwordWrites int
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{
		users: make(map[string]UserRecord),
		roles: make(map[string][]RoleRecord),
	}
}

func (p *mockUserProvider) add(user UserRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[user.ID] = user
}

func (p *mockUserProvider) get(userID string) UserRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.users[userID]
}

func (p *mockUserProvider) GetUserByEmail(_ context.Context, email string) (UserRecord, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, user := range p.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return UserRecord{}, false, nil
}

func (p *mockUserProvider) GetUserByID(_ context.Context, userID string) (UserRecord, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.users[userID]
	return user, ok, nil
}

func (p *mockUserProvider) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := UserRecord{
		ID:           "user-" + input.Email,
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: input.PasswordHash,
	}
	p.users[user.ID] = user
	return user, nil
}

func (p *mockUserProvider) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.updateHashErr != nil {
		return p.updateHashErr
	}
	user, ok := p.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = newHash
	p.users[userID] = user
	p.passwordWrites++
	return nil
}

func (p *mockUserProvider) MarkVerified(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.markVerifyErr != nil {
		return p.markVerifyErr
	}
	user, ok := p.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.Verified = true
	p.users[userID] = user
	return nil
}

func (p *mockUserProvider) RolesForUser(_ context.Context, userID string) ([]RoleRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roles[userID], nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("test-access-secret-0123456789abcdef")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret-0123456789abcde")
	cfg.JWT.Issuer = "authgate-test"
	// Cheap parameters keep the suite fast; production values live in
	// DefaultConfig.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, provider *mockUserProvider, clock *testClock, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(provider).
		WithRoleProvider(provider).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func seedUser(t *testing.T, engine *Engine, provider *mockUserProvider, id, email, plaintext string, verified bool, roles []RoleRecord) UserRecord {
	t.Helper()

	hash, err := engine.passwordHash.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}

	user := UserRecord{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Verified:     verified,
		Roles:        names,
	}
	provider.add(user)
	if len(roles) > 0 {
		provider.mu.Lock()
		provider.roles[id] = roles
		provider.mu.Unlock()
	}
	return user
}
