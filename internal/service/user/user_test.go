package user

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/repository"
	"github.com/nkiryanov/todoserver/internal/repository/postgres"
	"github.com/nkiryanov/todoserver/internal/revocation"
	"github.com/nkiryanov/todoserver/internal/service/auth"
	"github.com/nkiryanov/todoserver/internal/testutil"
)

func ptr[V any](v V) *V {
	return &v
}

func TestNewService(t *testing.T) {
	storage := postgres.NewStorage(nil)

	t.Run("revoker required", func(t *testing.T) {
		_, err := NewService(nil, nil, storage)

		require.ErrorIs(t, err, apperrors.ErrNilArgument)
	})

	t.Run("storage required", func(t *testing.T) {
		_, err := NewService(nil, revocation.New(), nil)

		require.ErrorIs(t, err, apperrors.ErrNilArgument)
	})

	t.Run("default hasher", func(t *testing.T) {
		s, err := NewService(nil, revocation.New(), storage)

		require.NoError(t, err)
		assert.Equal(t, auth.DefaultHasher, s.hasher)
	})
}

func TestUser(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}

	// Helper function to create UserService within transaction with one user "alice" having password "password"
	inTx := func(t *testing.T, fn func(s *UserService, storage repository.Storage, revoked *revocation.Store)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			revoked := revocation.New()

			hash, err := hasher.Hash("password")
			require.NoError(t, err)
			_, err = storage.User().CreateUser(t.Context(), models.User{
				Username:       "alice",
				HashedPassword: hash,
				Forename:       ptr("Alice"),
				Surname:        ptr("Liddell"),
				Roles:          []string{"USER"},
			})
			require.NoError(t, err)

			s, err := NewService(hasher, revoked, storage)
			require.NoError(t, err)

			fn(s, storage, revoked)
		})
	}

	t.Run("GetUser", func(t *testing.T) {
		inTx(t, func(s *UserService, _ repository.Storage, _ *revocation.Store) {
			user, err := s.GetUser(t.Context(), "alice")
			require.NoError(t, err)
			assert.Equal(t, "Alice", *user.Forename)

			_, err = s.GetUser(t.Context(), "bob")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("UpdateUser", func(t *testing.T) {
		t.Run("present attributes only", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage, _ *revocation.Store) {
				user, err := s.UpdateUser(t.Context(), "alice", models.User{Forename: ptr("Alicia")})

				require.NoError(t, err)
				assert.Equal(t, "Alicia", *user.Forename)
				assert.Equal(t, "Liddell", *user.Surname, "absent surname has to stay")

				stored, err := storage.User().GetUserByUsername(t.Context(), "alice", false)
				require.NoError(t, err)
				assert.Equal(t, user, stored)
			})
		})

		t.Run("not updatable attributes ignored", func(t *testing.T) {
			inTx(t, func(s *UserService, _ repository.Storage, _ *revocation.Store) {
				user, err := s.UpdateUser(t.Context(), "alice", models.User{
					Username:       "mallory",
					HashedPassword: "hash",
					Email:          ptr("mallory@example.com"),
					Roles:          []string{"ADMIN"},
				})

				require.NoError(t, err)
				assert.Equal(t, "alice", user.Username)
				assert.Nil(t, user.Email)
				assert.Equal(t, []string{"USER"}, user.Roles)
				assert.NoError(t, hasher.Compare(user.HashedPassword, "password"))
			})
		})

		t.Run("not existed user", func(t *testing.T) {
			inTx(t, func(s *UserService, _ repository.Storage, _ *revocation.Store) {
				_, err := s.UpdateUser(t.Context(), "bob", models.User{Forename: ptr("Bob")})

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("UpdateEmail", func(t *testing.T) {
		inTx(t, func(s *UserService, _ repository.Storage, _ *revocation.Store) {
			user, err := s.UpdateEmail(t.Context(), "alice", "alice@example.com")

			require.NoError(t, err)
			assert.Equal(t, "alice@example.com", *user.Email)
			assert.Equal(t, "Alice", *user.Forename)
		})
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			inTx(t, func(s *UserService, _ repository.Storage, _ *revocation.Store) {
				user, err := s.UpdatePassword(t.Context(), "alice", "password", "new-password")

				require.NoError(t, err)
				assert.NoError(t, hasher.Compare(user.HashedPassword, "new-password"))
			})
		})

		t.Run("current password mismatch", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage, _ *revocation.Store) {
				_, err := s.UpdatePassword(t.Context(), "alice", "wrong", "new-password")

				require.ErrorIs(t, err, apperrors.ErrPasswordMismatch)

				stored, err := storage.User().GetUserByUsername(t.Context(), "alice", false)
				require.NoError(t, err)
				assert.NoError(t, hasher.Compare(stored.HashedPassword, "password"), "password has not to be changed")
			})
		})

		t.Run("empty password", func(t *testing.T) {
			inTx(t, func(s *UserService, _ repository.Storage, _ *revocation.Store) {
				_, err := s.UpdatePassword(t.Context(), "alice", "password", "")

				require.Error(t, err)
			})
		})
	})

	t.Run("DeleteUser", func(t *testing.T) {
		inTx(t, func(s *UserService, storage repository.Storage, revoked *revocation.Store) {
			principal := models.Principal{Subject: "alice", Token: "token", ExpiresAt: time.Now().Add(time.Minute)}

			user, err := s.DeleteUser(t.Context(), principal)

			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			assert.True(t, revoked.IsRevoked("alice", "token"), "token used to delete the account has to be revoked")

			_, err = storage.User().GetUserByUsername(t.Context(), "alice", false)
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = s.DeleteUser(t.Context(), principal)
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
