package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tmarev/authgate/internal/audit"
	"github.com/tmarev/authgate/internal/guard"
	"github.com/tmarev/authgate/jwt"
	"github.com/tmarev/authgate/password"
	"github.com/tmarev/authgate/permission"
	"github.com/tmarev/authgate/token"
)

// Builder assembles an [Engine]. A Builder is single-use: Build may be
// called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	roleProvider RoleProvider
	tokenStore   TokenStore
	attemptGuard AttemptGuard
	policy       permission.Policy
	auditSink    AuditSink
	clock        func() time.Time

	built bool
}

// New starts a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the default login guard and
// token store. Not needed when both are supplied explicitly.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider supplies the user database integration. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithRoleProvider supplies role membership lookup. Required unless a
// custom policy is set with WithPolicy.
func (b *Builder) WithRoleProvider(rp RoleProvider) *Builder {
	b.roleProvider = rp
	return b
}

// WithTokenStore overrides the default Redis-backed token store.
func (b *Builder) WithTokenStore(ts TokenStore) *Builder {
	b.tokenStore = ts
	return b
}

// WithAttemptGuard overrides the default Redis-backed login guard.
func (b *Builder) WithAttemptGuard(g AttemptGuard) *Builder {
	b.attemptGuard = g
	return b
}

// WithPolicy overrides the authorization policy. The default is the role
// union policy wrapped with the configured superadmin bypass.
func (b *Builder) WithPolicy(p permission.Policy) *Builder {
	b.policy = p
	return b
}

// WithAuditSink supplies the audit event destination and enables the
// dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, fills in the default Redis-backed
// components, and returns the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	if b.policy == nil && b.roleProvider == nil {
		return nil, errors.New("role provider or policy required")
	}
	if b.redis == nil && (b.tokenStore == nil || b.attemptGuard == nil) {
		return nil, errors.New("redis client required unless token store and attempt guard are supplied")
	}

	clock := b.clock

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	// -------- JWT MANAGER --------
	method := jwt.MethodHS256
	if cfg.JWT.SigningMethod == "ed25519" {
		method = jwt.MethodEd25519
	}
	jwtManager, err := jwt.NewManager(jwt.Config{
		SigningMethod: method,
		AccessKey:     cfg.JWT.AccessSecret,
		RefreshKey:    cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- TOKEN STORE --------
	tokenStore := b.tokenStore
	if tokenStore == nil {
		tokenStore = token.NewStore(b.redis, token.StoreConfig{
			Prefix:         cfg.Tokens.RedisPrefix,
			RetentionGrace: cfg.Tokens.RetentionGrace,
		}, clock)
	}

	// -------- LOGIN GUARD --------
	attemptGuard := b.attemptGuard
	if attemptGuard == nil {
		attemptGuard = guard.NewRedisGuard(b.redis, guard.Config{
			MaxAttempts:  cfg.LoginGuard.MaxAttempts,
			LockDuration: cfg.LoginGuard.LockDuration,
			Prefix:       cfg.LoginGuard.RedisPrefix,
			Retention:    cfg.LoginGuard.Retention,
		}, clock)
	}

	// -------- AUTHORIZATION POLICY --------
	policy := b.policy
	if policy == nil {
		policy = permission.NewRolePolicy(roleProviderAdapter{b.roleProvider})
	}
	if len(cfg.Authz.SuperadminIDs) > 0 {
		policy = permission.NewSuperadminPolicy(cfg.Authz.SuperadminIDs, policy)
	}

	// -------- AUDIT --------
	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled && b.auditSink != nil {
		dispatcher = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sinkAdapter{b.auditSink})
	}

	b.built = true

	return &Engine{
		config:          cfg,
		userProvider:    b.userProvider,
		roleProvider:    b.roleProvider,
		tokenStore:      tokenStore,
		guard:           attemptGuard,
		policy:          policy,
		passwordHash:    hasher,
		jwtManager:      jwtManager,
		auditDispatcher: dispatcher,
		metrics:         NewMetrics(cfg.Metrics),
		clock:           clock,
	}, nil
}

// roleProviderAdapter bridges the root RoleProvider to the permission
// package without an import cycle.
type roleProviderAdapter struct {
	provider RoleProvider
}

func (a roleProviderAdapter) RolesForUser(ctx context.Context, userID string) ([]permission.Role, error) {
	records, err := a.provider.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles := make([]permission.Role, 0, len(records))
	for _, record := range records {
		roles = append(roles, permission.Role{
			Name:        record.Name,
			Permissions: record.Permissions,
		})
	}
	return roles, nil
}
