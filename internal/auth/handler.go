// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/salexim/directory-backend/internal/core"
	"github.com/salexim/directory-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter, authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(limiter)

		r.Post("/signin", h.SignIn)
		r.Post("/forgetPassword", h.ForgetPassword)
		r.Post("/resetPassword/{resetToken}", h.ResetPassword)
	})

	r.With(authenticator).Post("/signout", h.SignOut)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			core.JSONError(w, core.InvalidCredentialsError())
			return
		}
		core.InternalServerError(w, r, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	if err := h.service.SignOut(r.Context(), claims); err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			core.Unauthorized(w, "")
			return
		}
		core.InternalServerError(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "Signed out successfully.", nil)
}

func (h *Handler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	status, err := h.service.ForgetPassword(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.JSONError(w, core.NewAppError(
				err,
				"User with this email does not exist!",
				http.StatusBadRequest,
				"NOT_FOUND",
			))
			return
		}
		core.InternalServerError(w, r, err)
		return
	}

	msg := "Password reset token sent to your email."
	if status == ResetPending {
		msg = "Password reset token created but the email could not be delivered yet. Please try again."
	}

	core.Message(w, http.StatusOK, msg, map[string]any{"status": status})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "resetToken")

	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		if errors.Is(err, core.ErrInvalidOrExpired) {
			core.JSONError(w, core.InvalidOrExpiredError("reset token"))
			return
		}
		core.InternalServerError(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "Password reset successfully.", nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}
