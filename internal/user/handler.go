// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/salexim/directory-backend/internal/attachment"
	"github.com/salexim/directory-backend/internal/core"
	"github.com/salexim/directory-backend/internal/middleware"
)

const multipartOverhead = 1 << 20

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxCertificate int64
}

func NewHandler(service *Service, maxCertificate int64) *Handler {
	return &Handler{
		service:        service,
		validator:      core.NewValidator(),
		maxCertificate: maxCertificate,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Post("/signUp", h.SignUp)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/addUsers", h.AddUser)
		r.Get("/addUser", h.ListAddedUsers)
		r.Patch("/updateAddedUser/{userID}", h.UpdateAddedUser)
		r.Delete("/deleteAddedUser/{userID}", h.DeleteAddedUser)

		r.Put("/updateUser/{userID}", h.UpdateUser)
		r.Delete("/deleteUser/{userID}", h.DeleteUser)

		r.With(adminOnly).Get("/user", h.ListUsers)
		r.Get("/user/{userID}", h.GetUser)
	})
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	req, err := parseSignUpForm(formValues(r.MultipartForm.Value))
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	certificate, ok := h.readCertificate(w, r, true)
	if !ok {
		return
	}

	user, err := h.service.SignUp(r.Context(), req, certificate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.AddUser(r.Context(), actorFrom(r), req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "parent user")
			return
		}
		writeError(w, r, err)
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) ListAddedUsers(w http.ResponseWriter, r *http.Request) {
	addedBy := strings.TrimSpace(r.URL.Query().Get("addedBy"))
	if addedBy != "" && !isUUID(addedBy) {
		core.NotFound(w, "user")
		return
	}

	users, err := h.service.ListAddedUsers(r.Context(), actorFrom(r), addedBy)
	if err != nil {
		writeError(w, r, err)
		return
	}

	core.OK(w, ToUserResponseList(users))
}

func (h *Handler) UpdateAddedUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAddedUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateAddedUser(r.Context(), actorFrom(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// DeleteAddedUser takes the sub-account id from the path. The optional
// body field userId names the expected parent.
func (h *Handler) DeleteAddedUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req DeleteAddedUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.DeleteAddedUser(r.Context(), actorFrom(r), id, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "Added user deleted successfully.", nil)
}

// UpdateUser accepts either a JSON body or a multipart form carrying an
// optional replacement certificate.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var (
		req         UpdateUserRequest
		certificate *attachment.Attachment
	)

	if isMultipart(r) {
		if !h.parseMultipart(w, r) {
			return
		}

		var err error
		req, err = parseUpdateUserForm(formValues(r.MultipartForm.Value))
		if err != nil {
			core.BadRequest(w, err.Error())
			return
		}

		if certificate, ok = h.readCertificate(w, r, false); !ok {
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), actorFrom(r), id, req, certificate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	err := h.service.DeleteUser(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "User deleted successfully.", nil)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		core.InternalServerError(w, r, err)
		return
	}

	core.OK(w, ToUserResponseList(users))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxCertificate+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxCertificate); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.BadRequest(w, "certificate exceeds the size limit")
			return false
		}
		core.BadRequest(w, "invalid multipart form")
		return false
	}

	return true
}

func (h *Handler) readCertificate(
	w http.ResponseWriter,
	r *http.Request,
	required bool,
) (*attachment.Attachment, bool) {
	file, header, err := r.FormFile("certificate")
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			core.BadRequest(w, "certificate is required")
			return nil, false
		}
		return nil, true
	}
	if err != nil {
		core.BadRequest(w, "invalid certificate upload")
		return nil, false
	}
	defer file.Close()

	certificate, err := attachment.FromMultipart(file, header, h.maxCertificate)
	switch {
	case errors.Is(err, attachment.ErrTooLarge):
		core.BadRequest(w, "certificate exceeds the size limit")
		return nil, false
	case errors.Is(err, attachment.ErrEmpty):
		core.BadRequest(w, "certificate is empty")
		return nil, false
	case err != nil:
		core.InternalServerError(w, r, err)
		return nil, false
	}

	return certificate, true
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

func actorFrom(r *http.Request) Actor {
	return Actor{
		ID:       middleware.GetUserID(r.Context()),
		UserType: middleware.GetUserType(r.Context()),
	}
}

// userIDParam answers a malformed {userID} the same way as an unknown one.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "userID")
	if !isUUID(id) {
		core.NotFound(w, "user")
		return "", false
	}
	return id, true
}

func isUUID(s string) bool {
	return uuid.Validate(s) == nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.ConflictError("User with the same email already exists!"))
	case errors.Is(err, core.ErrNotVerified):
		core.JSONError(w, core.NotVerifiedError())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid input")
	default:
		core.InternalServerError(w, r, err)
	}
}
