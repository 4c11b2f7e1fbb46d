package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/todoserver/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by username. Lock the row till transaction end if lock is set
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByUsername(ctx context.Context, username string, lock bool) (models.User, error)

	// Store mutable user attributes: password hash, email, forename and surname
	// If user not found must return apperrors.ErrUserNotFound
	UpdateUser(ctx context.Context, user models.User) (models.User, error)

	// Delete user with all the todos and return deleted user
	// If user not found must return apperrors.ErrUserNotFound
	DeleteUser(ctx context.Context, username string) (models.User, error)
}

// Options to list todos
type ListTodosOpts struct {
	// Sort keys with internal paths. Todos are sorted by creation time if empty
	Sort []models.SortOrder

	Limit  int
	Offset int
}

// Todo repository interface
// Todos are always scoped by owner: todo of other user is the same as not existed one
type TodoRepo interface {
	CreateTodo(ctx context.Context, todo models.Todo) (models.Todo, error)

	// Lock the row till transaction end if lock is set
	// If todo not found must return apperrors.ErrTodoNotFound
	GetTodo(ctx context.Context, id uuid.UUID, username string, lock bool) (models.Todo, error)

	// If sort key has no column must return apperrors.ErrInvalidSortOrder
	ListTodos(ctx context.Context, username string, opts ListTodosOpts) (models.TodoPage, error)

	// Store title, description, scheduled_at, completed and updated_at
	// If todo not found must return apperrors.ErrTodoNotFound
	UpdateTodo(ctx context.Context, todo models.Todo) (models.Todo, error)

	// If todo not found must return apperrors.ErrTodoNotFound
	DeleteTodo(ctx context.Context, id uuid.UUID, username string) (models.Todo, error)
}

type Storage interface {
	User() UserRepo
	Todo() TodoRepo

	// Run fn in transaction. Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
