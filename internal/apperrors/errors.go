package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrPasswordMismatch  = errors.New("password is invalid")

	ErrTodoNotFound = errors.New("todo not found")

	ErrInvalidSortOrder = errors.New("invalid sort or order parameters")
	ErrInvalidPage      = errors.New("page and limit must be greater than 0")

	// Caller contract violation, never a client mistake
	ErrNilArgument = errors.New("argument must not be nil")

	// Any token defect. Reasons below wrap it and exist for logs only
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrTokenMalformed    = fmt.Errorf("token is malformed: %w", ErrUnauthenticated)
	ErrTokenBadSignature = fmt.Errorf("token signature is invalid: %w", ErrUnauthenticated)
	ErrTokenExpired      = fmt.Errorf("token is expired: %w", ErrUnauthenticated)
	ErrTokenRevoked      = fmt.Errorf("token is revoked: %w", ErrUnauthenticated)
)
