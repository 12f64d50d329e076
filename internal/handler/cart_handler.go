package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"optikart/internal/middleware"
	"optikart/internal/model"
	"optikart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles cart-related HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// userID extracts the authenticated user from the request context.
func (h *CartHandler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing user identity", h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// AddLine handles POST /api/cart/lines requests.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req model.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "productId is required", h.logger)
		return
	}

	line, err := h.service.AddToCart(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, line)
}

// Clear handles POST /api/cart/clear requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), userID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Line routes requests under /api/cart/lines/{id}. The sub-path selects the
// operation:
//
//	DELETE /api/cart/lines/{id}
//	PUT    /api/cart/lines/{id}/quantity
//	PUT    /api/cart/lines/{id}/prescription/inline
//	PUT    /api/cart/lines/{id}/prescription/profile
//	POST   /api/cart/lines/{id}/prescription/save-as-profile
func (h *CartHandler) Line(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/cart/lines/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "line ID is required", h.logger)
		return
	}

	lineID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid line ID format", h.logger)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.removeLine(w, r, userID, lineID)
	case len(parts) == 2 && parts[1] == "quantity" && r.Method == http.MethodPut:
		h.updateQuantity(w, r, userID, lineID)
	case len(parts) == 3 && parts[1] == "prescription" && parts[2] == "inline" && r.Method == http.MethodPut:
		h.setInlinePrescription(w, r, userID, lineID)
	case len(parts) == 3 && parts[1] == "prescription" && parts[2] == "profile" && r.Method == http.MethodPut:
		h.setProfilePrescription(w, r, userID, lineID)
	case len(parts) == 3 && parts[1] == "prescription" && parts[2] == "save-as-profile" && r.Method == http.MethodPost:
		h.saveAsProfile(w, r, userID, lineID)
	default:
		writeError(w, http.StatusNotFound, model.ErrCodeInternalError, "not found", h.logger)
	}
}

func (h *CartHandler) removeLine(w http.ResponseWriter, r *http.Request, userID, lineID uuid.UUID) {
	if err := h.service.RemoveLine(r.Context(), userID, lineID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request, userID, lineID uuid.UUID) {
	var req model.UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.service.UpdateLineQuantity(r.Context(), userID, lineID, req.Quantity); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) setInlinePrescription(w http.ResponseWriter, r *http.Request, userID, lineID uuid.UUID) {
	var req model.SetInlinePrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.service.SetLinePrescriptionInline(r.Context(), userID, lineID, req.Prescription); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) setProfilePrescription(w http.ResponseWriter, r *http.Request, userID, lineID uuid.UUID) {
	var req model.SetProfilePrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.service.SetLinePrescriptionByProfile(r.Context(), userID, lineID, req.ProfileID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) saveAsProfile(w http.ResponseWriter, r *http.Request, userID, lineID uuid.UUID) {
	var req model.SaveAsProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	profile, err := h.service.SaveLinePrescriptionAsProfile(r.Context(), userID, lineID, req.Label)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}
