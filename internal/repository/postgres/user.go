package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `username, password_hash, email, created_at, forename, surname, roles`

const createUser = `-- name: CreateUser
INSERT INTO users (username, password_hash, email, forename, surname, roles)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	rows, _ := r.DB.Query(ctx, createUser, u.Username, u.HashedPassword, u.Email, u.Forename, u.Surname, roles)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string, lock bool) (models.User, error) {
	query := getUserByUsername
	if lock {
		query += "FOR UPDATE\n"
	}

	rows, _ := r.DB.Query(ctx, query, username)
	return collectUser(rows)
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET password_hash = $2, email = $3, forename = $4, surname = $5
WHERE username = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser, u.Username, u.HashedPassword, u.Email, u.Forename, u.Surname)
	return collectUser(rows)
}

// Todos are deleted by foreign key cascade
const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE username = $1
RETURNING ` + userColumns

func (r *UserRepo) DeleteUser(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, deleteUser, username)
	return collectUser(rows)
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.Username, &u.HashedPassword, &u.Email, &u.CreatedAt, &u.Forename, &u.Surname, &u.Roles)
	return u, err
}
