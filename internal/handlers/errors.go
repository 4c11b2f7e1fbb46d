package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/handlers/render"
	"github.com/nkiryanov/todoserver/internal/handlers/userctx"
	"github.com/nkiryanov/todoserver/internal/logger"
	"github.com/nkiryanov/todoserver/internal/models"
)

// Render service error as response, unexpected ones are logged
func renderServiceError(w http.ResponseWriter, r *http.Request, err error, l logger.Logger) {
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrTodoNotFound):
		render.ServiceError(w, "Todo not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User already exists", http.StatusConflict)
	case errors.Is(err, apperrors.ErrInvalidSortOrder):
		render.ServiceError(w, "Invalid sort or order parameters", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrInvalidPage):
		render.ServiceError(w, "Page number and limit must be greater than 0", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrPasswordMismatch):
		render.ServiceError(w, "Current password is invalid", http.StatusBadRequest)
	default:
		l.Error("request failed", "method", r.Method, "uri", r.RequestURI, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Principal set by auth middleware
// Missing principal means route is registered without auth, and it is a server bug
func principalOrFail(w http.ResponseWriter, r *http.Request, l logger.Logger) (models.Principal, bool) {
	principal, ok := userctx.FromContext(r.Context())
	if !ok {
		l.Error("no principal in request context", "uri", r.RequestURI)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
	return principal, ok
}
