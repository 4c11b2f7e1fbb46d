package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/handlers/render"
	"github.com/nkiryanov/todoserver/internal/handlers/userctx"
	"github.com/nkiryanov/todoserver/internal/logger"
)

// Login with HTTP Basic credentials
// Issued token is put to configured response header, user to response body
func handleLogin(authService authService, tokenHeader string, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="todoserver"`)
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user, token, err := authService.Login(r.Context(), username, password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPasswordMismatch):
				logger.Warn("login failed", "username", username)
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			default:
				renderServiceError(w, r, err, logger)
			}
			return
		}

		value := token.Value
		if http.CanonicalHeaderKey(tokenHeader) == defaultTokenHeader {
			value = "Bearer " + value
		}
		w.Header().Set(tokenHeader, value)

		render.JSONWithStatus(w, newUserResponse(user), http.StatusAccepted)
	})
}

func handleLogout(authService authService) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		authService.Logout(principal)
		render.JSON(w, response{Message: "User logged out successfully"})
	})
}
