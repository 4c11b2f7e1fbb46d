package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/repository"
	"github.com/nkiryanov/todoserver/internal/service/auth"
)

type Revoker interface {
	Revoke(subject string, token string, expiresAt time.Time)
}

type UserService struct {
	hasher  auth.PasswordHasher
	revoker Revoker
	storage repository.Storage
}

// NewService creates user service. Hasher defaults to auth.DefaultHasher
// Revoker is required: account deletion revokes the token it was requested with
func NewService(hasher auth.PasswordHasher, revoker Revoker, storage repository.Storage) (*UserService, error) {
	if revoker == nil || storage == nil {
		return nil, fmt.Errorf("revoker and storage: %w", apperrors.ErrNilArgument)
	}

	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		revoker: revoker,
		storage: storage,
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, username string) (models.User, error) {
	return s.storage.User().GetUserByUsername(ctx, username, false)
}

// UpdateUser copies present batch-updatable attributes (forename, surname) of update onto stored user
// Nothing is written if update has none of them
func (s *UserService) UpdateUser(ctx context.Context, username string, update models.User) (models.User, error) {
	var user models.User

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		current, err := storage.User().GetUserByUsername(ctx, username, true)
		if err != nil {
			return err
		}

		changed, err := models.UserSchema.Merge(&current, &update)
		if err != nil {
			return err
		}

		if !changed {
			user = current
			return nil
		}

		user, err = storage.User().UpdateUser(ctx, current)
		return err
	})
	if err != nil {
		return user, fmt.Errorf("can't update user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) UpdateEmail(ctx context.Context, username string, email string) (models.User, error) {
	var user models.User

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		current, err := storage.User().GetUserByUsername(ctx, username, true)
		if err != nil {
			return err
		}

		current.Email = &email
		user, err = storage.User().UpdateUser(ctx, current)
		return err
	})
	if err != nil {
		return user, fmt.Errorf("can't update email. Err: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces password if the current one matches
// Returns apperrors.ErrPasswordMismatch otherwise
func (s *UserService) UpdatePassword(ctx context.Context, username string, current string, modified string) (models.User, error) {
	var user models.User

	if modified == "" {
		return user, errors.New("password must not be empty")
	}

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		stored, err := storage.User().GetUserByUsername(ctx, username, true)
		if err != nil {
			return err
		}

		if s.hasher.Compare(stored.HashedPassword, current) != nil {
			return apperrors.ErrPasswordMismatch
		}

		stored.HashedPassword, err = s.hasher.Hash(modified)
		if err != nil {
			return fmt.Errorf("can't use this as password, Err: %w", err)
		}

		user, err = storage.User().UpdateUser(ctx, stored)
		return err
	})
	if err != nil {
		return user, fmt.Errorf("can't update password. Err: %w", err)
	}

	return user, nil
}

// DeleteUser deletes caller account with all the todos and revokes the token it used
func (s *UserService) DeleteUser(ctx context.Context, principal models.Principal) (models.User, error) {
	user, err := s.storage.User().DeleteUser(ctx, principal.Subject)
	if err != nil {
		return user, fmt.Errorf("can't delete user. Err: %w", err)
	}

	s.revoker.Revoke(principal.Subject, principal.Token, principal.ExpiresAt)

	return user, nil
}
