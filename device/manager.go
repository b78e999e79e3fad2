package device

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry, issuer,
// or subject checks.
var ErrInvalidToken = errors.New("invalid device token")

// Config configures a Manager.
type Config struct {
	// Secret is the HS256 key. Required, at least 32 bytes.
	Secret []byte
	// Issuer is written to and checked on every token when set.
	Issuer string
	// TTL is the token lifetime.
	TTL time.Duration
	// Leeway tolerates clock skew on expiry checks.
	Leeway time.Duration
}

// DefaultTTL keeps a device id for roughly a year.
const DefaultTTL = 400 * 24 * time.Hour

// Claims are the device token claims. Subject is the device id.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager signs and verifies device tokens.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager. A zero TTL selects
// DefaultTTL.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("device secret must be at least 32 bytes")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	return &Manager{config: cfg, now: time.Now}, nil
}

// Issue creates a new device id and its signed token.
func (m *Manager) Issue() (token, id string, err error) {
	id = uuid.NewString()
	token, err = m.sign(id)
	if err != nil {
		return "", "", err
	}
	return token, id, nil
}

// Renew signs a fresh token for an existing device id.
func (m *Manager) Renew(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return m.sign(id)
}

func (m *Manager) sign(id string) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies token and returns its device id.
func (m *Manager) Parse(token string) (string, error) {
	claims, err := m.parse(token, false)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Resume verifies token like Parse but accepts an expired token: the gate
// state behind a device id never expires, so neither does the id. renewed is
// a fresh token once token is past half its lifetime, and empty otherwise.
func (m *Manager) Resume(token string) (id, renewed string, err error) {
	claims, err := m.parse(token, true)
	if err != nil {
		return "", "", err
	}

	renewAt := claims.ExpiresAt.Time.Add(-m.config.TTL / 2)
	if m.now().Before(renewAt) {
		return claims.Subject, "", nil
	}
	renewed, err = m.Renew(claims.Subject)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, renewed, nil
}

func (m *Manager) parse(token string, allowExpired bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if allowExpired {
		// Signature and method are still enforced; claims are checked below.
		options = append(options, jwt.WithoutClaimsValidation())
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	if m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject is not a device id", ErrInvalidToken)
	}
	return claims, nil
}
