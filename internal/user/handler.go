// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/middleware"
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

// RegisterRoutes mounts the account routes on an /api router.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Post("/sign-up", h.SignUp)
	r.Post("/verify-code", h.VerifyCode)
	r.Get("/check-username-unique", h.CheckUsernameUnique)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/accept-messages", h.GetAcceptMessages)
		r.Post("/accept-messages", h.SetAcceptMessages)
	})
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	_, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			core.JSONError(w, core.NewAppError(
				err, "Username is already taken", http.StatusConflict, "USERNAME_TAKEN",
			))
		case errors.Is(err, ErrEmailTaken):
			core.JSONError(w, core.NewAppError(
				err, "User already exists with this email", http.StatusConflict, "EMAIL_TAKEN",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, core.MessageResponse{
		Success: true,
		Message: "User registered successfully. Please verify your account.",
	})
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.VerifyCode(r.Context(), req.Username, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "User not found")
		case errors.Is(err, ErrAlreadyVerified):
			core.JSONError(w, core.NewAppError(
				err, "Account is already verified", http.StatusBadRequest, "ALREADY_VERIFIED",
			))
		case errors.Is(err, ErrCodeExpired):
			core.JSONError(w, core.NewAppError(
				err,
				"Verification code has expired. Please sign up again to get a new code.",
				http.StatusBadRequest,
				"CODE_EXPIRED",
			))
		case errors.Is(err, ErrCodeInvalid):
			core.JSONError(w, core.NewAppError(
				err, "Incorrect verification code", http.StatusBadRequest, "CODE_INVALID",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, core.MessageResponse{
		Success: true,
		Message: "Account verified successfully",
	})
}

func (h *Handler) CheckUsernameUnique(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	available, err := h.service.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "Username must be 2-20 letters, digits or underscores")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if !available {
		core.JSONError(w, core.NewAppError(
			ErrUsernameTaken, "Username is already taken", http.StatusBadRequest, "USERNAME_TAKEN",
		))
		return
	}

	core.OK(w, core.MessageResponse{
		Success: true,
		Message: "Username is unique",
	})
}

func (h *Handler) GetAcceptMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	accepting, err := h.service.GetAcceptanceFlag(r.Context(), userID)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	core.OK(w, AcceptanceResponse{
		Success:             true,
		IsAcceptingMessages: accepting,
	})
}

func (h *Handler) SetAcceptMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req AcceptMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	updated, err := h.service.SetAcceptanceFlag(r.Context(), userID, *req.AcceptMessages)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	core.OK(w, UpdatedUserResponse{
		Success:     true,
		Message:     "Message acceptance status updated successfully",
		UpdatedUser: ToUserResponse(updated),
	})
}

func writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "Not authenticated")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "User not found")
	default:
		core.InternalServerError(w, err)
	}
}
