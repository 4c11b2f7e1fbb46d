package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/repository"
)

type TodoRepo struct {
	DB DBTX
}

// Internal attribute paths to sql columns. Only these may appear in ORDER BY
var todoSortColumns = map[string]string{
	"ID":             "t.id",
	"Title":          "t.title",
	"Description":    "t.description",
	"ScheduledAt":    "t.scheduled_at",
	"Completed":      "t.completed",
	"CreatedAt":      "t.created_at",
	"UpdatedAt":      "t.updated_at",
	"User.Username":  "u.username",
	"User.Email":     "u.email",
	"User.CreatedAt": "u.created_at",
	"User.Forename":  "u.forename",
	"User.Surname":   "u.surname",
}

const todoColumns = `t.id, t.title, t.description, t.scheduled_at, t.completed, t.created_at, t.updated_at,
	u.username, u.password_hash, u.email, u.created_at, u.forename, u.surname, u.roles`

const createTodo = `-- name: CreateTodo
WITH t AS (
	INSERT INTO todos (id, username, title, description, scheduled_at, completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING *
)
SELECT ` + todoColumns + `
FROM t JOIN users u ON u.username = t.username
`

func (r *TodoRepo) CreateTodo(ctx context.Context, todo models.Todo) (models.Todo, error) {
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createTodo,
		todo.ID, todo.User.Username, todo.Title, todo.Description, todo.ScheduledAt, todo.Completed, todo.CreatedAt, todo.UpdatedAt)
	created, err := pgx.CollectOneRow(rows, rowToTodo)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrUserNotFound
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTodo = `-- name: GetTodo
SELECT ` + todoColumns + `
FROM todos t JOIN users u ON u.username = t.username
WHERE t.id = $1 AND t.username = $2
`

func (r *TodoRepo) GetTodo(ctx context.Context, id uuid.UUID, username string, lock bool) (models.Todo, error) {
	query := getTodo
	if lock {
		query += "FOR UPDATE OF t\n"
	}

	rows, _ := r.DB.Query(ctx, query, id, username)
	return collectTodo(rows)
}

const listTodos = `-- name: ListTodos
SELECT ` + todoColumns + `
FROM todos t JOIN users u ON u.username = t.username
WHERE t.username = $1
ORDER BY %s
LIMIT $2 OFFSET $3
`

const countTodos = `-- name: CountTodos
SELECT count(*) FROM todos
WHERE username = $1
`

func (r *TodoRepo) ListTodos(ctx context.Context, username string, opts repository.ListTodosOpts) (models.TodoPage, error) {
	var page models.TodoPage

	orderBy, err := todoOrderBy(opts.Sort)
	if err != nil {
		return page, err
	}

	rows, _ := r.DB.Query(ctx, fmt.Sprintf(listTodos, orderBy), username, opts.Limit, opts.Offset)
	todos, err := pgx.CollectRows(rows, rowToTodo)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	err = r.DB.QueryRow(ctx, countTodos, username).Scan(&page.Total)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	page.Todos = todos
	return page, nil
}

// Build ORDER BY clause from whitelisted columns only. Id is the last key so pages are stable
func todoOrderBy(orders []models.SortOrder) (string, error) {
	if len(orders) == 0 {
		return "t.created_at ASC, t.id ASC", nil
	}

	keys := make([]string, 0, len(orders)+1)
	for _, o := range orders {
		column, ok := todoSortColumns[o.Path]
		if !ok {
			return "", fmt.Errorf("no column for %q: %w", o.Path, apperrors.ErrInvalidSortOrder)
		}

		switch o.Direction {
		case models.Asc, models.Desc:
		default:
			return "", fmt.Errorf("direction %q: %w", o.Direction, apperrors.ErrInvalidSortOrder)
		}

		keys = append(keys, column+" "+string(o.Direction))
	}
	keys = append(keys, "t.id ASC")

	return strings.Join(keys, ", "), nil
}

const updateTodo = `-- name: UpdateTodo
WITH t AS (
	UPDATE todos
	SET title = $3, description = $4, scheduled_at = $5, completed = $6, updated_at = $7
	WHERE id = $1 AND username = $2
	RETURNING *
)
SELECT ` + todoColumns + `
FROM t JOIN users u ON u.username = t.username
`

func (r *TodoRepo) UpdateTodo(ctx context.Context, todo models.Todo) (models.Todo, error) {
	rows, _ := r.DB.Query(ctx, updateTodo,
		todo.ID, todo.User.Username, todo.Title, todo.Description, todo.ScheduledAt, todo.Completed, todo.UpdatedAt)
	return collectTodo(rows)
}

const deleteTodo = `-- name: DeleteTodo
WITH t AS (
	DELETE FROM todos
	WHERE id = $1 AND username = $2
	RETURNING *
)
SELECT ` + todoColumns + `
FROM t JOIN users u ON u.username = t.username
`

func (r *TodoRepo) DeleteTodo(ctx context.Context, id uuid.UUID, username string) (models.Todo, error) {
	rows, _ := r.DB.Query(ctx, deleteTodo, id, username)
	return collectTodo(rows)
}

func collectTodo(rows pgx.Rows) (models.Todo, error) {
	todo, err := pgx.CollectOneRow(rows, rowToTodo)

	switch {
	case err == nil:
		return todo, nil
	case errors.Is(err, pgx.ErrNoRows):
		return todo, apperrors.ErrTodoNotFound
	default:
		return todo, fmt.Errorf("db error: %w", err)
	}
}

func rowToTodo(row pgx.CollectableRow) (models.Todo, error) {
	var t models.Todo
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.ScheduledAt, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
		&t.User.Username, &t.User.HashedPassword, &t.User.Email, &t.User.CreatedAt, &t.User.Forename, &t.User.Surname, &t.User.Roles,
	)
	return t, err
}
