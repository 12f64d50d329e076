package handler

import (
	"net/http"

	"optikart/internal/middleware"
	"optikart/internal/model"
	"optikart/internal/service"

	"github.com/rs/zerolog"
)

// ProfileHandler handles prescription profile HTTP requests.
type ProfileHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(service service.CartService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("handler", "profile").Logger(),
	}
}

// List handles GET /api/profiles requests.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing user identity", h.logger)
		return
	}

	profiles, err := h.service.ListProfiles(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if profiles == nil {
		profiles = []model.PrescriptionProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}
