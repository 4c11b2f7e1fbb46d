package tokenmanager

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
)

const (
	defaultTokenTTL      = 15 * time.Minute
	defaultSigningMethod = "HS256"

	rolesSeparator = ":"
)

type Claims struct {
	jwt.RegisteredClaims
	Roles string `json:"roles"`

	// Exact expiry as unix nanoseconds. Registered exp keeps whole seconds only
	ExpiresAtNano int64 `json:"exp_ns"`
}

// GetExpirationTime makes the parser check expiry against the exact claim
// Token without it has no expiry at all
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAtNano == 0 {
		return nil, nil
	}
	return &jwt.NumericDate{Time: time.Unix(0, c.ExpiresAtNano)}, nil
}

// Revoked tokens set, shared by all requests
type RevocationStore interface {
	Revoke(subject string, token string, expiresAt time.Time)
	IsRevoked(subject string, token string) bool
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm, one of HS256, HS384, HS512
	// If not set than default is used
	Alg string

	// Token lifetime
	// If not set than default is used
	TTL time.Duration
}

type TokenManager struct {
	// Secret key to sign tokens
	key []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	ttl time.Duration

	revoked RevocationStore
}

func New(cfg Config, revoked RevocationStore) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if revoked == nil {
		return nil, fmt.Errorf("revocation store: %w", apperrors.ErrNilArgument)
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signing method %q is not supported", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTokenTTL
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}

	return &TokenManager{
		key:     []byte(cfg.SecretKey),
		alg:     alg,
		ttl:     cfg.TTL,
		revoked: revoked,
	}, nil
}

// Issue signed token for the subject. Token is valid in [now, now+ttl)
func (m *TokenManager) Issue(subject string, roles []string, now time.Time) (models.IssuedToken, error) {
	var issued models.IssuedToken

	if subject == "" {
		return issued, errors.New("subject must not be empty")
	}
	for _, role := range roles {
		if role == "" || strings.Contains(role, rolesSeparator) {
			return issued, fmt.Errorf("invalid role %q", role)
		}
	}

	expiresAt := now.Add(m.ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Roles:         strings.Join(roles, rolesSeparator),
			ExpiresAtNano: expiresAt.UnixNano(),
		},
	)
	value, err := token.SignedString(m.key)
	if err != nil {
		return issued, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Verify token at the moment now
// Authenticity and expiry are checked first, revocation is consulted only for authentic tokens
func (m *TokenManager) Verify(token string, now time.Time) (models.Principal, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrTokenBadSignature, err)
	default:
		return models.Principal{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return models.Principal{}, fmt.Errorf("no subject: %w", apperrors.ErrTokenMalformed)
	}

	if m.revoked.IsRevoked(claims.Subject, token) {
		return models.Principal{}, apperrors.ErrTokenRevoked
	}

	var roles []string
	if claims.Roles != "" {
		roles = strings.Split(claims.Roles, rolesSeparator)
	}

	return models.Principal{
		Subject:   claims.Subject,
		Roles:     roles,
		Token:     token,
		ExpiresAt: time.Unix(0, claims.ExpiresAtNano),
	}, nil
}

// Revoke token of the subject. Repeated calls are noop
func (m *TokenManager) Revoke(subject string, token string, expiresAt time.Time) {
	m.revoked.Revoke(subject, token, expiresAt)
}
