// AngelaMos | 2026
// handler.go

package message

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Post("/send-message", h.Send)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/get-messages", h.List)
		r.Delete("/delete-message/{messageID}", h.Delete)
	})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	id, err := h.service.Submit(r.Context(), req.Username, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "Message content cannot be empty")
		case errors.Is(err, ErrRecipientNotFound):
			core.JSONError(w, core.NewAppError(
				err, "User not found", http.StatusNotFound, "RECIPIENT_NOT_FOUND",
			))
		case errors.Is(err, ErrIntakeClosed):
			core.JSONError(w, core.NewAppError(
				err, "User is not accepting messages", http.StatusNotFound, "NOT_ACCEPTING",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, SendMessageResponse{
		Success:   true,
		Message:   "Message sent successfully",
		MessageID: id,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeOwnerError(w, err, "User not found")
		return
	}

	core.OK(w, ListMessagesResponse{
		Success:  true,
		Messages: ToMessageResponses(msgs),
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), messageID)
	if err != nil {
		writeOwnerError(w, err, "Message not found or already deleted")
		return
	}

	core.OK(w, core.MessageResponse{
		Success: true,
		Message: "Message deleted",
	})
}

func writeOwnerError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "Not authenticated")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, notFound)
	default:
		core.InternalServerError(w, err)
	}
}
