package tokenmanager

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/revocation"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	t0 := mustParseTime("2024-01-01 19:00:00Z")
	at := func(seconds int) time.Time {
		return t0.Add(time.Duration(seconds) * time.Second)
	}

	newManager := func(t *testing.T, ttl time.Duration) *TokenManager {
		m, err := New(Config{SecretKey: "test-secret-key", TTL: ttl}, revocation.New())
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"}, revocation.New())
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, []byte("secret"), m.key, "secret key should be set")
		require.Equal(t, defaultTokenTTL, m.ttl, "default token TTL should be set")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new errors", func(t *testing.T) {
		_, err := New(Config{}, revocation.New())
		require.Error(t, err, "empty secret is not allowed")

		_, err = New(Config{SecretKey: "secret", Alg: "RS256"}, revocation.New())
		require.Error(t, err, "only MAC algorithms are supported")

		_, err = New(Config{SecretKey: "secret", Alg: "unknown"}, revocation.New())
		require.Error(t, err)

		_, err = New(Config{SecretKey: "secret", TTL: -time.Second}, revocation.New())
		require.Error(t, err)

		_, err = New(Config{SecretKey: "secret"}, nil)
		require.ErrorIs(t, err, apperrors.ErrNilArgument)
	})

	t.Run("Issue", func(t *testing.T) {
		t.Run("claims", func(t *testing.T) {
			m := newManager(t, time.Minute)

			issued, err := m.Issue("alice", []string{"USER", "ADMIN"}, t0.Add(500*time.Millisecond))
			require.NoError(t, err)
			require.Equal(t, at(60).Add(500*time.Millisecond), issued.ExpiresAt, "expiry is issue time plus ttl")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(issued.Value, claims, func(token *jwt.Token) (any, error) {
				return []byte("test-secret-key"), nil
			}, jwt.WithTimeFunc(func() time.Time { return at(1) }))
			require.NoError(t, err)
			require.True(t, token.Valid, "token should be valid")

			assert.Equal(t, "alice", claims.Subject)
			assert.Equal(t, "USER:ADMIN", claims.Roles)
			assert.Equal(t, t0, claims.IssuedAt.Time.UTC())
			assert.Equal(t, at(60), claims.ExpiresAt.Time.UTC(), "registered exp keeps whole seconds")
			assert.Equal(t, at(60).Add(500*time.Millisecond).UnixNano(), claims.ExpiresAtNano)
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.Equal(t, "HS256", token.Method.Alg())
		})

		t.Run("different tokens at same time", func(t *testing.T) {
			m := newManager(t, time.Minute)

			first, err := m.Issue("alice", nil, t0)
			require.NoError(t, err)
			second, err := m.Issue("alice", nil, t0)
			require.NoError(t, err)

			assert.NotEqual(t, first.Value, second.Value)
		})

		t.Run("invalid input", func(t *testing.T) {
			m := newManager(t, time.Minute)

			_, err := m.Issue("", nil, t0)
			require.Error(t, err)

			_, err = m.Issue("alice", []string{"A:B"}, t0)
			require.Error(t, err, "separator inside role is not allowed")
		})
	})

	t.Run("Verify", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			m := newManager(t, time.Minute)
			issued, err := m.Issue("alice", []string{"USER"}, t0)
			require.NoError(t, err)

			principal, err := m.Verify(issued.Value, at(30))

			require.NoError(t, err)
			assert.Equal(t, "alice", principal.Subject)
			assert.Equal(t, []string{"USER"}, principal.Roles)
			assert.Equal(t, issued.Value, principal.Token)
			assert.Equal(t, issued.ExpiresAt, principal.ExpiresAt.UTC())
		})

		t.Run("no roles", func(t *testing.T) {
			m := newManager(t, time.Minute)
			issued, err := m.Issue("alice", nil, t0)
			require.NoError(t, err)

			principal, err := m.Verify(issued.Value, at(1))

			require.NoError(t, err)
			assert.Empty(t, principal.Roles)
		})

		t.Run("expiry boundary", func(t *testing.T) {
			m := newManager(t, time.Minute)
			issued, err := m.Issue("alice", nil, t0)
			require.NoError(t, err)

			_, err = m.Verify(issued.Value, at(59))
			require.NoError(t, err, "valid one second before expiry")

			_, err = m.Verify(issued.Value, at(60))
			require.ErrorIs(t, err, apperrors.ErrTokenExpired, "invalid exactly at expiry")
			require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		})

		t.Run("expiry boundary with fractional issue time", func(t *testing.T) {
			m := newManager(t, time.Minute)
			issuedAt := t0.Add(900 * time.Millisecond)
			issued, err := m.Issue("alice", nil, issuedAt)
			require.NoError(t, err)

			_, err = m.Verify(issued.Value, at(60).Add(500*time.Millisecond))
			require.NoError(t, err, "valid inside the window although past the whole second")

			_, err = m.Verify(issued.Value, issuedAt.Add(time.Minute-time.Nanosecond))
			require.NoError(t, err, "valid right before expiry")

			_, err = m.Verify(issued.Value, issuedAt.Add(time.Minute))
			require.ErrorIs(t, err, apperrors.ErrTokenExpired, "invalid exactly at expiry")
		})

		t.Run("not a token", func(t *testing.T) {
			m := newManager(t, time.Minute)

			for _, value := range []string{"", "invalid token", "a.b.c"} {
				_, err := m.Verify(value, t0)
				require.ErrorIs(t, err, apperrors.ErrTokenMalformed, "value %q", value)
			}
		})

		t.Run("signed with other key", func(t *testing.T) {
			m := newManager(t, time.Minute)
			other, err := New(Config{SecretKey: "other-secret"}, revocation.New())
			require.NoError(t, err)

			issued, err := other.Issue("alice", nil, t0)
			require.NoError(t, err)

			_, err = m.Verify(issued.Value, at(1))
			require.ErrorIs(t, err, apperrors.ErrTokenBadSignature)
		})

		t.Run("tampered token", func(t *testing.T) {
			m := newManager(t, time.Minute)
			issued, err := m.Issue("alice", nil, t0)
			require.NoError(t, err)

			tampered := issued.Value[:len(issued.Value)-2] + "xx"
			if tampered == issued.Value {
				tampered = issued.Value[:len(issued.Value)-2] + "yy"
			}

			_, err = m.Verify(tampered, at(1))
			require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		})

		t.Run("not signed token", func(t *testing.T) {
			m := newManager(t, time.Minute)

			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						Subject:   "alice",
						IssuedAt:  jwt.NewNumericDate(t0),
						ExpiresAt: jwt.NewNumericDate(at(60)),
					},
				},
			)
			value, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.Verify(value, at(1))
			require.ErrorIs(t, err, apperrors.ErrTokenBadSignature, "valid token with none alg must fail")
		})

		t.Run("other mac algorithm", func(t *testing.T) {
			m := newManager(t, time.Minute)
			other, err := New(Config{SecretKey: "test-secret-key", Alg: "HS512"}, revocation.New())
			require.NoError(t, err)

			issued, err := other.Issue("alice", nil, t0)
			require.NoError(t, err)

			_, err = m.Verify(issued.Value, at(1))
			require.ErrorIs(t, err, apperrors.ErrTokenBadSignature)
		})

		t.Run("only registered exp", func(t *testing.T) {
			m := newManager(t, time.Minute)

			token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(at(60))},
			})
			value, err := token.SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.Verify(value, at(1))
			require.ErrorIs(t, err, apperrors.ErrTokenMalformed, "exact expiry is required")
		})

		t.Run("no expiry", func(t *testing.T) {
			m := newManager(t, time.Minute)

			token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
			})
			value, err := token.SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.Verify(value, at(1))
			require.ErrorIs(t, err, apperrors.ErrTokenMalformed)
		})

		t.Run("no subject", func(t *testing.T) {
			m := newManager(t, time.Minute)

			token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(at(60))},
				ExpiresAtNano:    at(60).UnixNano(),
			})
			value, err := token.SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.Verify(value, at(1))
			require.ErrorIs(t, err, apperrors.ErrTokenMalformed)
		})

		t.Run("expired wins over revoked", func(t *testing.T) {
			m := newManager(t, time.Minute)
			issued, err := m.Issue("alice", nil, t0)
			require.NoError(t, err)

			m.Revoke("alice", issued.Value, issued.ExpiresAt)

			_, err = m.Verify(issued.Value, at(61))
			require.ErrorIs(t, err, apperrors.ErrTokenExpired)
		})
	})

	t.Run("lifecycle", func(t *testing.T) {
		m := newManager(t, 60*time.Second)

		issued, err := m.Issue("alice", []string{"USER"}, at(0))
		require.NoError(t, err)

		_, err = m.Verify(issued.Value, at(30))
		require.NoError(t, err, "active token")

		m.Revoke("alice", issued.Value, issued.ExpiresAt)
		m.Revoke("alice", issued.Value, issued.ExpiresAt)

		_, err = m.Verify(issued.Value, at(32))
		require.ErrorIs(t, err, apperrors.ErrTokenRevoked, "revoked token")

		fresh, err := m.Issue("alice", []string{"USER"}, at(40))
		require.NoError(t, err)

		principal, err := m.Verify(fresh.Value, at(45))
		require.NoError(t, err, "new token of the same subject is not revoked")
		require.Equal(t, "alice", principal.Subject)
	})

	t.Run("concurrent verify and revoke", func(t *testing.T) {
		m := newManager(t, time.Hour)

		const n = 50
		tokens := make([]string, n)
		for i := range n {
			issued, err := m.Issue(fmt.Sprintf("user-%d", i), nil, t0)
			require.NoError(t, err)
			tokens[i] = issued.Value
		}

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(2)
			go func() {
				defer wg.Done()
				m.Revoke(fmt.Sprintf("user-%d", i), tokens[i], at(3600))
			}()
			go func() {
				defer wg.Done()
				_, err := m.Verify(tokens[i], at(1))
				if err != nil {
					assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
				}
			}()
		}
		wg.Wait()

		for i := range n {
			_, err := m.Verify(tokens[i], at(2))
			require.ErrorIs(t, err, apperrors.ErrTokenRevoked, "revoke is visible after it completed")
		}
	})
}
