package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/repository"
)

var defaultRoles = []string{"USER"}

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Issues, verifies and revokes bearer tokens
type TokenManager interface {
	Issue(subject string, roles []string, now time.Time) (models.IssuedToken, error)
	Verify(token string, now time.Time) (models.Principal, error)
	Revoke(subject string, token string, expiresAt time.Time)
}

type Config struct {
	// Hasher to use during user registration or login process
	// If not set than bcrypt is used
	Hasher PasswordHasher

	// Roles of newly registered users
	// If not set than default is used
	Roles []string
}

// Auth service
type AuthService struct {
	tokens  TokenManager
	hasher  PasswordHasher
	roles   []string
	storage repository.Storage

	// Hash to compare with when user does not exist, so login takes the same time
	dummyHash func() (string, error)

	now func() time.Time
}

func NewService(cfg Config, tokens TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, fmt.Errorf("token manager and storage: %w", apperrors.ErrNilArgument)
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	roles := cfg.Roles
	if len(roles) == 0 {
		roles = defaultRoles
	}

	return &AuthService{
		tokens:  tokens,
		hasher:  hasher,
		roles:   roles,
		storage: storage,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash("not-a-password")
		}),
		now: time.Now,
	}, nil
}

// Register new user with configured roles
// Password hash and roles of the given user are ignored
func (s *AuthService) Register(ctx context.Context, user models.User, password string) (models.User, error) {
	if password == "" {
		return models.User{}, errors.New("password must not be empty")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user.HashedPassword = hash
	user.Roles = s.roles

	user, err = s.storage.User().CreateUser(ctx, user)
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Login checks credentials and issues token
// Unknown user and wrong password both return apperrors.ErrPasswordMismatch
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.User, models.IssuedToken, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username, false)
	switch {
	case err == nil:
		err = s.hasher.Compare(user.HashedPassword, password)
		if err != nil {
			return models.User{}, models.IssuedToken{}, apperrors.ErrPasswordMismatch
		}
	case errors.Is(err, apperrors.ErrUserNotFound):
		if hash, hashErr := s.dummyHash(); hashErr == nil {
			_ = s.hasher.Compare(hash, password)
		}
		return models.User{}, models.IssuedToken{}, apperrors.ErrPasswordMismatch
	default:
		return models.User{}, models.IssuedToken{}, err
	}

	token, err := s.tokens.Issue(user.Username, user.Roles, s.now())
	if err != nil {
		return models.User{}, models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return user, token, nil
}

// Authenticate bearer token at the current moment
func (s *AuthService) Authenticate(token string) (models.Principal, error) {
	return s.tokens.Verify(token, s.now())
}

// Logout revokes the token the caller authenticated with
func (s *AuthService) Logout(principal models.Principal) {
	s.tokens.Revoke(principal.Subject, principal.Token, principal.ExpiresAt)
}
