package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/todoserver/internal/handlers/middleware"
	"github.com/nkiryanov/todoserver/internal/logger"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/service/todo"
)

const defaultTokenHeader = "Authorization"

// Routes available without bearer token
var publicRoutes = []middleware.Route{
	{Method: http.MethodPost, Path: "/v1/users"},
	{Method: http.MethodPost, Path: "/v1/auth/login"},
}

type Config struct {
	// Response header to put issued token to on login
	// "Authorization" gets "Bearer <token>", any other header gets raw token
	TokenHeader string

	// Accept "true" and "false" strings as todo completion flag
	LenientBooleans bool
}

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	cfg Config,
	authService authService,
	userService userService,
	todoService todoService,
	logger logger.Logger,
) http.Handler {
	if cfg.TokenHeader == "" {
		cfg.TokenHeader = defaultTokenHeader
	}

	api := http.NewServeMux()

	api.Handle("POST /users", handleRegister(authService, logger))
	api.Handle("POST /auth/login", handleLogin(authService, cfg.TokenHeader, logger))
	api.Handle("POST /auth/logout", handleLogout(authService))

	api.Handle("GET /users", handleGetUser(userService, logger))
	api.Handle("PUT /users", handleUpdateUser(userService, logger))
	api.Handle("PATCH /users/email", handleUpdateEmail(userService, logger))
	api.Handle("PATCH /users/password", handleUpdatePassword(userService, logger))
	api.Handle("DELETE /users", handleDeleteUser(userService, logger))

	api.Handle("GET /todos", handleListTodos(todoService, logger))
	api.Handle("POST /todos", handleCreateTodo(todoService, cfg.LenientBooleans, logger))
	api.Handle("GET /todos/{id}", handleGetTodo(todoService, logger))
	api.Handle("PUT /todos/{id}", handleUpdateTodo(todoService, cfg.LenientBooleans, logger))
	api.Handle("DELETE /todos/{id}", handleDeleteTodo(todoService, logger))

	root := http.NewServeMux()
	root.Handle("/v1/", http.StripPrefix("/v1", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.AuthMiddleware(authService, logger, publicRoutes...),
	)

	return handler
}

type authService interface {
	// Register user with password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, user models.User, password string) (models.User, error)

	// Login user with username and password
	// Has to return apperrors.ErrPasswordMismatch if credentials are wrong
	Login(ctx context.Context, username string, password string) (models.User, models.IssuedToken, error)

	// Verify bearer token
	Authenticate(token string) (models.Principal, error)

	// Revoke token of the caller
	Logout(principal models.Principal)
}

type userService interface {
	GetUser(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, username string, update models.User) (models.User, error)
	UpdateEmail(ctx context.Context, username string, email string) (models.User, error)
	UpdatePassword(ctx context.Context, username string, current string, modified string) (models.User, error)
	DeleteUser(ctx context.Context, principal models.Principal) (models.User, error)
}

type todoService interface {
	CreateTodo(ctx context.Context, username string, todo models.Todo) (models.Todo, error)
	GetTodo(ctx context.Context, username string, id uuid.UUID) (models.Todo, error)
	ListTodos(ctx context.Context, username string, q todo.ListQuery) (models.TodoPage, error)
	UpdateTodo(ctx context.Context, username string, id uuid.UUID, update models.Todo) (models.Todo, error)
	DeleteTodo(ctx context.Context, username string, id uuid.UUID) (models.Todo, error)
}
