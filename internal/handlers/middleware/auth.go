package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/handlers/render"
	"github.com/nkiryanov/todoserver/internal/handlers/userctx"
	"github.com/nkiryanov/todoserver/internal/models"
)

const bearerScheme = "Bearer "

type authService interface {
	// Verify bearer token. Error has to wrap apperrors.ErrUnauthenticated
	Authenticate(token string) (models.Principal, error)
}

type warnLogger interface {
	Warn(msg string, args ...any)
}

// Request matched by method and exact path
type Route struct {
	Method string
	Path   string
}

// AuthMiddleware authenticates every request except the public routes
// Authenticated caller is put to request context, see userctx
func AuthMiddleware(as authService, l warnLogger, public ...Route) func(http.Handler) http.Handler {
	allowed := make(map[Route]struct{}, len(public))
	for _, route := range public {
		allowed[route] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[Route{Method: r.Method, Path: r.URL.Path}]; ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authenticate(as, r)
			if err != nil {
				l.Warn("request not authenticated", "method", r.Method, "uri", r.RequestURI, "reason", err.Error())
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(as authService, r *http.Request) (models.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return models.Principal{}, fmt.Errorf("no authorization header: %w", apperrors.ErrTokenMalformed)
	}

	token, ok := strings.CutPrefix(header, bearerScheme)
	if !ok {
		return models.Principal{}, fmt.Errorf("not a bearer scheme: %w", apperrors.ErrTokenMalformed)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return models.Principal{}, fmt.Errorf("empty token: %w", apperrors.ErrTokenMalformed)
	}

	return as.Authenticate(token)
}
