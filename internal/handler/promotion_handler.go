package handler

import (
	"net/http"

	"voteon/internal/middleware"
	"voteon/internal/service"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// PromotionHandler exposes the class-to-college promotion pipeline.
type PromotionHandler struct {
	promotion *service.PromotionService
	logger    *logger.Logger
}

func NewPromotionHandler(promotion *service.PromotionService, log *logger.Logger) *PromotionHandler {
	return &PromotionHandler{promotion: promotion, logger: log}
}

// PromoteWinners handles POST /api/v1/promotion/promote-winners
func (h *PromotionHandler) PromoteWinners(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	promoted, err := h.promotion.PromoteClassWinners(r.Context(), identity)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"promoted": promoted})
}

type enrollWinnerRequest struct {
	StudentID string `json:"student_id"`
}

// EnrollWinner handles POST /api/v1/promotion/elections/{electionID}/candidates
func (h *PromotionHandler) EnrollWinner(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	var req enrollWinnerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.StudentID == "" {
		respondError(w, h.logger, apperrors.NewValidationError("student_id is required", nil))
		return
	}

	election, err := h.promotion.AddWinnerToCollegeElection(r.Context(), identity, chi.URLParam(r, "electionID"), req.StudentID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, election)
}

// ClassWinners handles GET /api/v1/promotion/class-winners
func (h *PromotionHandler) ClassWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.promotion.ClassWinners(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"winners": winners})
}
