// AngelaMos | 2026
// handler.go

package suggest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/mystery-message/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/suggest-messages", h.Suggest)
}

type SuggestResponse struct {
	Success     bool     `json:"success"`
	Result      string   `json:"result"`
	Suggestions []string `json:"suggestions"`
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	raw, questions, err := h.service.Suggest(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrSuggestionsDisabled):
			core.JSONError(w, core.NewAppError(
				err, "Message suggestions are unavailable",
				http.StatusServiceUnavailable, "SUGGESTIONS_DISABLED",
			))
		case errors.Is(err, ErrUpstream):
			core.JSONError(w, core.NewAppError(
				err, "Could not generate suggestions, try again",
				http.StatusBadGateway, "SUGGESTIONS_UPSTREAM",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, SuggestResponse{
		Success:     true,
		Result:      raw,
		Suggestions: questions,
	})
}
