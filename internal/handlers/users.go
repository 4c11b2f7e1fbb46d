package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/todoserver/internal/handlers/render"
	"github.com/nkiryanov/todoserver/internal/logger"
	"github.com/nkiryanov/todoserver/internal/models"
)

// User as returned to clients. Password hash is never exposed
type UserResponse struct {
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	Forename  *string   `json:"forename"`
	Surname   *string   `json:"surname"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u models.User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		Forename:  u.Forename,
		Surname:   u.Surname,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}

func handleRegister(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Username string  `json:"username" validate:"required,min=5,max=60"`
		Password string  `json:"password" validate:"required,min=8,max=255"`
		Email    *string `json:"email" validate:"omitempty,email,max=50"`
		Forename *string `json:"forename" validate:"omitempty,min=2,max=50"`
		Surname  *string `json:"surname" validate:"omitempty,min=2,max=50"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := authService.Register(r.Context(), models.User{
			Username: data.Username,
			Email:    data.Email,
			Forename: data.Forename,
			Surname:  data.Surname,
		}, data.Password)
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		logger.Info("user registered", "username", user.Username)
		render.JSONWithStatus(w, newUserResponse(user), http.StatusCreated)
	})
}

func handleGetUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOrFail(w, r, logger)
		if !ok {
			return
		}

		user, err := userService.GetUser(r.Context(), principal.Subject)
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}

// Partial update: absent fields stay as they are
func handleUpdateUser(userService userService, logger logger.Logger) http.Handler {
	type request struct {
		Forename *string `json:"forename" validate:"omitempty,min=2,max=50"`
		Surname  *string `json:"surname" validate:"omitempty,min=2,max=50"`
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

		user, err := userService.UpdateUser(r.Context(), principal.Subject, models.User{
			Forename: data.Forename,
			Surname:  data.Surname,
		})
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}

func handleUpdateEmail(userService userService, logger logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email,max=50"`
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

		user, err := userService.UpdateEmail(r.Context(), principal.Subject, data.Email)
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}

func handleUpdatePassword(userService userService, logger logger.Logger) http.Handler {
	type password struct {
		Password string `json:"password" validate:"required,min=8,max=255"`
	}
	type request struct {
		Current  password `json:"current" validate:"required"`
		Modified password `json:"modified" validate:"required"`
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

		user, err := userService.UpdatePassword(r.Context(), principal.Subject, data.Current.Password, data.Modified.Password)
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		logger.Info("password changed", "username", user.Username)
		render.JSON(w, newUserResponse(user))
	})
}

// Delete the caller account with all the todos. Token used for the request is revoked
func handleDeleteUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOrFail(w, r, logger)
		if !ok {
			return
		}

		user, err := userService.DeleteUser(r.Context(), principal)
		if err != nil {
			renderServiceError(w, r, err, logger)
			return
		}

		logger.Info("user deleted", "username", user.Username)
		render.JSON(w, newUserResponse(user))
	})
}
