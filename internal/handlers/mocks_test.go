package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/service/todo"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, user models.User, password string) (models.User, error) {
	args := m.Called(ctx, user, password)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, username string, password string) (models.User, models.IssuedToken, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.User), args.Get(1).(models.IssuedToken), args.Error(2)
}

func (m *mockAuthService) Authenticate(token string) (models.Principal, error) {
	args := m.Called(token)
	return args.Get(0).(models.Principal), args.Error(1)
}

func (m *mockAuthService) Logout(principal models.Principal) {
	m.Called(principal)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetUser(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, username string, update models.User) (models.User, error) {
	args := m.Called(ctx, username, update)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserService) UpdateEmail(ctx context.Context, username string, email string) (models.User, error) {
	args := m.Called(ctx, username, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserService) UpdatePassword(ctx context.Context, username string, current string, modified string) (models.User, error) {
	args := m.Called(ctx, username, current, modified)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, principal models.Principal) (models.User, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(models.User), args.Error(1)
}

type mockTodoService struct {
	mock.Mock
}

func (m *mockTodoService) CreateTodo(ctx context.Context, username string, t models.Todo) (models.Todo, error) {
	args := m.Called(ctx, username, t)
	return args.Get(0).(models.Todo), args.Error(1)
}

func (m *mockTodoService) GetTodo(ctx context.Context, username string, id uuid.UUID) (models.Todo, error) {
	args := m.Called(ctx, username, id)
	return args.Get(0).(models.Todo), args.Error(1)
}

func (m *mockTodoService) ListTodos(ctx context.Context, username string, q todo.ListQuery) (models.TodoPage, error) {
	args := m.Called(ctx, username, q)
	return args.Get(0).(models.TodoPage), args.Error(1)
}

func (m *mockTodoService) UpdateTodo(ctx context.Context, username string, id uuid.UUID, update models.Todo) (models.Todo, error) {
	args := m.Called(ctx, username, id, update)
	return args.Get(0).(models.Todo), args.Error(1)
}

func (m *mockTodoService) DeleteTodo(ctx context.Context, username string, id uuid.UUID) (models.Todo, error) {
	args := m.Called(ctx, username, id)
	return args.Get(0).(models.Todo), args.Error(1)
}
