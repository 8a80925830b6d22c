package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"voteon/internal/domain"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr := mapDomainError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	} else {
		log.WithError(err).Debug("Request rejected")
	}

	response := &apperrors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// mapDomainError converts domain sentinel errors into the HTTP error
// taxonomy. AppErrors pass through untouched.
func mapDomainError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrElectionNotFound),
		errors.Is(err, domain.ErrStudentNotFound):
		return apperrors.NewNotFoundError(err.Error())

	case errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrDuplicateCandidate),
		errors.Is(err, domain.ErrPositionConflict),
		errors.Is(err, domain.ErrAlreadyCandidate),
		errors.Is(err, domain.ErrNotActive),
		errors.Is(err, domain.ErrOutsideWindow),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrNotTied),
		errors.Is(err, domain.ErrVersionConflict):
		return apperrors.NewConflictError(err.Error())

	case errors.Is(err, domain.ErrUnverified),
		errors.Is(err, domain.ErrScopeMismatch):
		return apperrors.NewAuthorizationError(err.Error())

	case errors.Is(err, domain.ErrUnknownCandidate),
		errors.Is(err, domain.ErrAttendanceTooLow),
		errors.Is(err, domain.ErrNotWinner),
		errors.Is(err, domain.ErrInsufficientCandidates),
		errors.Is(err, domain.ErrInsufficientApprovedCandidates):
		return apperrors.NewValidationError(err.Error(), nil)
	}

	return apperrors.NewInternalError("An unexpected error occurred", err)
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	return nil
}
