package todo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/repository"
	"github.com/nkiryanov/todoserver/internal/sorting"
)

// Query to list todos as sent by client
// Sort holds external field names, Order the directions for them
type ListQuery struct {
	Page  int
	Limit int
	Sort  []string
	Order []string
}

type TodoService struct {
	storage repository.Storage
	now     func() time.Time
}

func NewService(storage repository.Storage) *TodoService {
	return &TodoService{
		storage: storage,
		now:     time.Now,
	}
}

// CreateTodo stores new todo of the user
// Completed is false if not set. Returns apperrors.ErrUserNotFound if the account is gone
func (s *TodoService) CreateTodo(ctx context.Context, username string, todo models.Todo) (models.Todo, error) {
	if err := s.ensureUser(ctx, username); err != nil {
		return models.Todo{}, err
	}

	now := s.now()

	todo.ID = uuid.New()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	todo.User = models.User{Username: username}
	if todo.Completed == nil {
		completed := false
		todo.Completed = &completed
	}

	created, err := s.storage.Todo().CreateTodo(ctx, todo)
	if err != nil {
		return created, fmt.Errorf("can't create todo. Err: %w", err)
	}

	return created, nil
}

func (s *TodoService) GetTodo(ctx context.Context, username string, id uuid.UUID) (models.Todo, error) {
	return s.storage.Todo().GetTodo(ctx, id, username, false)
}

// ListTodos returns page of user todos
// Returns apperrors.ErrInvalidPage for non-positive page or limit and apperrors.ErrInvalidSortOrder for bad sort keys
// Deleted account gets apperrors.ErrUserNotFound, not an empty page
func (s *TodoService) ListTodos(ctx context.Context, username string, q ListQuery) (models.TodoPage, error) {
	if q.Page <= 0 || q.Limit <= 0 || q.Page-1 > math.MaxInt32/q.Limit {
		return models.TodoPage{}, fmt.Errorf("page=%d limit=%d: %w", q.Page, q.Limit, apperrors.ErrInvalidPage)
	}

	orders, err := sorting.Validate(q.Sort, q.Order, models.TodoSchema)
	if err != nil {
		return models.TodoPage{}, err
	}

	if err := s.ensureUser(ctx, username); err != nil {
		return models.TodoPage{}, err
	}

	return s.storage.Todo().ListTodos(ctx, username, repository.ListTodosOpts{
		Sort:   orders,
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
	})
}

// UpdateTodo copies present batch-updatable attributes of update onto stored todo
// Modification time is bumped only when something was copied
func (s *TodoService) UpdateTodo(ctx context.Context, username string, id uuid.UUID, update models.Todo) (models.Todo, error) {
	var todo models.Todo

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		current, err := storage.Todo().GetTodo(ctx, id, username, true)
		if err != nil {
			return err
		}

		changed, err := models.TodoSchema.Merge(&current, &update)
		if err != nil {
			return err
		}

		if !changed {
			todo = current
			return nil
		}

		current.UpdatedAt = s.now()
		todo, err = storage.Todo().UpdateTodo(ctx, current)
		return err
	})
	if err != nil {
		return todo, fmt.Errorf("can't update todo. Err: %w", err)
	}

	return todo, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, username string, id uuid.UUID) (models.Todo, error) {
	return s.storage.Todo().DeleteTodo(ctx, id, username)
}

// Token of a deleted account stays valid until it expires, so the owner may be gone
func (s *TodoService) ensureUser(ctx context.Context, username string) error {
	_, err := s.storage.User().GetUserByUsername(ctx, username, false)
	if err != nil {
		return fmt.Errorf("todo owner %q: %w", username, err)
	}
	return nil
}
