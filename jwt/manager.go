package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the signature algorithm for both token families.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256 over a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

// Config holds the signing material and lifetimes. AccessKey and RefreshKey
// must differ: a token minted for one family must never verify under the
// other.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	SigningMethod SigningMethod
	AccessKey     []byte
	RefreshKey    []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Manager issues and verifies access and refresh tokens. Safe for concurrent
// use after construction.
type Manager struct {
	config Config
}

// AccessUser is the claim source for access tokens: the sanitized projection
// of the authenticated user at issuance time.
type AccessUser struct {
	ID       string
	Email    string
	FullName string
	Verified bool
	Roles    []string
}

// AccessClaims are the decoded claims of a verified access token. They are a
// snapshot from issuance time and may lag the database.
type AccessClaims struct {
	UID      string   `json:"uid"`
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Verified bool     `json:"verified"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims are the decoded claims of a verified refresh token. Only the
// owning user id is embedded.
type RefreshClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.AccessKey) == 0 || len(cfg.RefreshKey) == 0 {
		return nil, errors.New("both access and refresh keys are required")
	}
	if string(cfg.AccessKey) == string(cfg.RefreshKey) {
		return nil, errors.New("access and refresh keys must be distinct")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.AccessKey); err != nil {
			return nil, fmt.Errorf("access key: %w", err)
		}
		if _, err := parseEdPrivateKey(cfg.RefreshKey); err != nil {
			return nil, fmt.Errorf("refresh key: %w", err)
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess signs a short-lived access token for user, issued at now.
func (m *Manager) CreateAccess(user AccessUser, now time.Time) (string, error) {
	claims := AccessClaims{
		UID:      user.ID,
		Email:    user.Email,
		Name:     user.FullName,
		Verified: user.Verified,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return m.sign(claims, m.config.AccessKey)
}

// CreateRefresh signs a long-lived refresh token for userID, issued at now.
func (m *Manager) CreateRefresh(userID string, now time.Time) (string, error) {
	claims := RefreshClaims{
		UID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return m.sign(claims, m.config.RefreshKey)
}

// ParseAccess verifies signature, algorithm, and expiry of an access token
// and returns its claims.
func (m *Manager) ParseAccess(tokenStr string, now time.Time) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.config.AccessKey, now); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies signature, algorithm, and expiry of a refresh token
// and returns its claims.
func (m *Manager) ParseRefresh(tokenStr string, now time.Time) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims, m.config.RefreshKey, now); err != nil {
		return nil, err
	}
	return claims, nil
}

// RefreshTTL exposes the configured refresh lifetime so callers can persist
// rows with a matching expiry.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

func (m *Manager) sign(claims jwt.Claims, key []byte) (string, error) {
	token := jwt.NewWithClaims(m.method(), claims)

	signKey, err := m.signKey(key)
	if err != nil {
		return "", err
	}
	return token.SignedString(signKey)
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, key []byte, now time.Time) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey(key)
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) signKey(key []byte) (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		return parseEdPrivateKey(key)
	}
}

func (m *Manager) verifyKey(key []byte) (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		priv, err := parseEdPrivateKey(key)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}
