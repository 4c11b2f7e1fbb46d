package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/handlers/render"
	"github.com/nkiryanov/todoserver/internal/logger"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/service/todo"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	totalCountHeader = "X-Total-Count"
)

var errNotBoolean = errors.New("not a boolean")

type TodoResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Completed   *bool      `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	User        string     `json:"user"`
}

func newTodoResponse(t models.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		ScheduledAt: t.ScheduledAt,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		User:        t.User.Username,
	}
}

// Parse completion flag. Nil if value is absent or null
// Strings "true" and "false" in any case are accepted when lenient is set
func parseCompleted(raw json.RawMessage, lenient bool) (*bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var value bool
	err := json.Unmarshal(raw, &value)
	if err == nil {
		return &value, nil
	}

	if !lenient {
		return nil, errNotBoolean
	}

	var text string
	if json.Unmarshal(raw, &text) != nil {
		return nil, errNotBoolean
	}

	switch strings.ToLower(text) {
	case "true":
		value = true
	case "false":
		value = false
	default:
		return nil, errNotBoolean
	}

	return &value, nil
}

func parseTodoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Todo not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// Positive integer query parameter or default if absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}

// Repeated parameter values; each value may also be a comma separated list
func queryList(r *http.Request, name string) []string {
	var result []string
	for _, value := range r.URL.Query()[name] {
		result = append(result, strings.Split(value, ",")...)
	}
	return result
}

func handleListTodos(todoService todoService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOrFail(w, r, logger)
		if !ok {
			return
		}

		page, pageErr := queryInt(r, "page", defaultPage)
		limit, limitErr := queryInt(r, "limit", defaultLimit)
		if pageErr != nil || limitErr != nil {
			renderServiceError(w, r, apperrors.ErrInvalidPage, logger)
			return
		}

		result, err := todoService.ListTodos(r.Context(), principal.Subject, todo.ListQuery{
			Page:  page,
			Limit: limit,
			Sort:  queryList(r, "sort"),
			Order: queryList(r, "order"),
		})
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		res := make([]TodoResponse, 0, len(result.Todos))
		for _, t := range result.Todos {
			res = append(res, newTodoResponse(t))
		}

		w.Header().Set(totalCountHeader, strconv.FormatInt(result.Total, 10))
		render.JSON(w, res)
	})
}

func handleCreateTodo(todoService todoService, lenient bool, logger logger.Logger) http.Handler {
	type request struct {
		Title       *string         `json:"title" validate:"required,notblank,max=300"`
		Description *string         `json:"description" validate:"required,notblank,max=500"`
		ScheduledAt *time.Time      `json:"scheduled_at" validate:"required,futureorpresent"`
		Completed   json.RawMessage `json:"completed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOrFail(w, r, logger)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		completed, err := parseCompleted(data.Completed, lenient)
		switch {
		case err != nil:
			render.FieldError(w, "completed", "Must be a boolean")
			return
		case completed == nil:
			render.FieldError(w, "completed", "This field is required")
			return
		}

		created, err := todoService.CreateTodo(r.Context(), principal.Subject, models.Todo{
			Title:       data.Title,
			Description: data.Description,
			ScheduledAt: data.ScheduledAt,
			Completed:   completed,
		})
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		render.JSONWithStatus(w, newTodoResponse(created), http.StatusCreated)
	})
}

func handleGetTodo(todoService todoService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOrFail(w, r, logger)
		if !ok {
			return
		}

		id, ok := parseTodoID(w, r)
		if !ok {
			return
		}

		t, err := todoService.GetTodo(r.Context(), principal.Subject, id)
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		render.JSON(w, newTodoResponse(t))
	})
}

// Partial update: absent fields stay as they are
func handleUpdateTodo(todoService todoService, lenient bool, logger logger.Logger) http.Handler {
	type request struct {
		Title       *string         `json:"title" validate:"omitempty,notblank,max=300"`
		Description *string         `json:"description" validate:"omitempty,notblank,max=500"`
		ScheduledAt *time.Time      `json:"scheduled_at" validate:"omitempty,futureorpresent"`
		Completed   json.RawMessage `json:"completed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOrFail(w, r, logger)
		if !ok {
			return
		}

		id, ok := parseTodoID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		completed, err := parseCompleted(data.Completed, lenient)
		if err != nil {
			render.FieldError(w, "completed", "Must be a boolean")
			return
		}

		updated, err := todoService.UpdateTodo(r.Context(), principal.Subject, id, models.Todo{
			Title:       data.Title,
			Description: data.Description,
			ScheduledAt: data.ScheduledAt,
			Completed:   completed,
		})
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		render.JSON(w, newTodoResponse(updated))
	})
}

func handleDeleteTodo(todoService todoService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOrFail(w, r, logger)
		if !ok {
			return
		}

		id, ok := parseTodoID(w, r)
		if !ok {
			return
		}

		deleted, err := todoService.DeleteTodo(r.Context(), principal.Subject, id)
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		render.JSON(w, newTodoResponse(deleted))
	})
}
