// AngelaMos | 2026
// handler.go

package otp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/salexim/directory-backend/internal/core"
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
	limiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(limiter)

		r.Post("/sendOtp", h.SendOTP)
		r.Post("/verifyOtp", h.VerifyOTP)
		r.Post("/resendOtp", h.ResendOTP)
	})
}

var statusMessages = map[string]string{
	StatusSent:       "OTP sent to your email. Please verify to complete the sign-up.",
	StatusPending:    "OTP created but the email could not be delivered yet. Use resend to try again.",
	StatusInProgress: "Verification in progress. Please check your email for OTP.",
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	status, err := h.service.RequestOTP(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.ConflictError("User with the same email already exists!"))
			return
		}
		core.InternalServerError(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, statusMessages[status], map[string]any{
		"status": status,
	})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		if errors.Is(err, core.ErrInvalidOrExpired) {
			core.JSONError(w, core.InvalidOrExpiredError("OTP"))
			return
		}
		core.InternalServerError(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "Email verified successfully.", nil)
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	status, err := h.service.ResendOTP(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.JSONError(w, core.NewAppError(
				err,
				"No pending verification for this email. Please request an OTP first.",
				http.StatusBadRequest,
				"NOT_FOUND",
			))
			return
		}
		core.InternalServerError(w, r, err)
		return
	}

	msg := "OTP resent successfully. Please check your email."
	if status == StatusPending {
		msg = statusMessages[StatusPending]
	}

	core.Message(w, http.StatusOK, msg, map[string]any{"status": status})
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
