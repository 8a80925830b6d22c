package handler

import (
	"context"
	"net/http"

	"voteon/internal/domain"
	"voteon/internal/middleware"
	"voteon/internal/service"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// CandidacyHandler exposes the nomination/approval workflow over HTTP.
type CandidacyHandler struct {
	candidacy *service.CandidacyService
	logger    *logger.Logger
}

func NewCandidacyHandler(candidacy *service.CandidacyService, log *logger.Logger) *CandidacyHandler {
	return &CandidacyHandler{candidacy: candidacy, logger: log}
}

// Nominate handles POST /api/v1/candidacy/nominate. Students nominate
// themselves; the identity in the token decides whose record changes.
func (h *CandidacyHandler) Nominate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	var in service.NominationInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, h.logger, err)
		return
	}

	student, err := h.candidacy.Nominate(r.Context(), identity.ID, in)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, student)
}

// Approve handles POST /api/v1/candidacy/{studentID}/approve
func (h *CandidacyHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.candidacy.Approve)
}

// Reject handles POST /api/v1/candidacy/{studentID}/reject
func (h *CandidacyHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.candidacy.Reject)
}

// Revoke handles POST /api/v1/candidacy/{studentID}/revoke
func (h *CandidacyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.candidacy.Revoke)
}

func (h *CandidacyHandler) review(
	w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor domain.Identity, studentID string) (*domain.Student, error),
) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	student, err := op(r.Context(), identity, chi.URLParam(r, "studentID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// Pending handles GET /api/v1/candidacy/pending
func (h *CandidacyHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.candidacy.Pending(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"candidates": pending})
}
