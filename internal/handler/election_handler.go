package handler

import (
	"context"
	"net/http"

	"voteon/internal/domain"
	"voteon/internal/middleware"
	"voteon/internal/repository"
	"voteon/internal/service"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ElectionHandler exposes the election lifecycle over HTTP.
type ElectionHandler struct {
	elections *service.ElectionService
	logger    *logger.Logger
}

func NewElectionHandler(elections *service.ElectionService, log *logger.Logger) *ElectionHandler {
	return &ElectionHandler{elections: elections, logger: log}
}

// Create handles POST /api/v1/elections
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	var in service.CreateElectionInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, h.logger, err)
		return
	}

	election, err := h.elections.Create(r.Context(), identity, in)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, election)
}

// List handles GET /api/v1/elections
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ElectionFilter{
		Type:   domain.Tier(r.URL.Query().Get("type")),
		Status: domain.ElectionStatus(r.URL.Query().Get("status")),
	}

	elections, err := h.elections.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"elections": elections})
}

// Get handles GET /api/v1/elections/{electionID}
func (h *ElectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	election, err := h.elections.Get(r.Context(), chi.URLParam(r, "electionID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, election)
}

type addCandidateRequest struct {
	StudentID string `json:"student_id"`
}

// AddCandidate handles POST /api/v1/elections/{electionID}/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	var req addCandidateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.StudentID == "" {
		respondError(w, h.logger, apperrors.NewValidationError("student_id is required", nil))
		return
	}

	election, err := h.elections.AddCandidate(r.Context(), identity, chi.URLParam(r, "electionID"), req.StudentID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, election)
}

// Schedule handles POST /api/v1/elections/{electionID}/schedule
func (h *ElectionHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.elections.Schedule)
}

// Start handles POST /api/v1/elections/{electionID}/start
func (h *ElectionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.elections.Start)
}

// Cancel handles POST /api/v1/elections/{electionID}/cancel
func (h *ElectionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.elections.Cancel)
}

// transition runs one of the body-less lifecycle operations.
func (h *ElectionHandler) transition(
	w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor domain.Identity, electionID string) (*domain.Election, error),
) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	election, err := op(r.Context(), identity, chi.URLParam(r, "electionID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, election)
}

type voteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// Vote handles POST /api/v1/elections/{electionID}/vote
func (h *ElectionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.CandidateID == "" {
		respondError(w, h.logger, apperrors.NewValidationError("candidate_id is required", nil))
		return
	}

	electionID := chi.URLParam(r, "electionID")
	if err := h.elections.Vote(r.Context(), identity.ID, electionID, req.CandidateID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "vote recorded",
		"election_id": electionID,
	})
}

// End handles POST /api/v1/elections/{electionID}/end
func (h *ElectionHandler) End(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	result, err := h.elections.End(r.Context(), identity, chi.URLParam(r, "electionID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type resolveTieRequest struct {
	WinnerID string `json:"winner_id"`
}

// ResolveTie handles POST /api/v1/elections/{electionID}/resolve-tie
func (h *ElectionHandler) ResolveTie(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	var req resolveTieRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.WinnerID == "" {
		respondError(w, h.logger, apperrors.NewValidationError("winner_id is required", nil))
		return
	}

	result, err := h.elections.ResolveTie(r.Context(), identity, chi.URLParam(r, "electionID"), req.WinnerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Results handles GET /api/v1/elections/{electionID}/results
func (h *ElectionHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.elections.Results(r.Context(), chi.URLParam(r, "electionID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// ForStudent handles GET /api/v1/elections/for-student
func (h *ElectionHandler) ForStudent(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	views, err := h.elections.ElectionsForStudent(r.Context(), identity.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"elections": views})
}
