package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"voteon/internal/domain"
	apperrors "voteon/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{"election not found", domain.ErrElectionNotFound, http.StatusNotFound, apperrors.ErrorTypeNotFound},
		{"student not found", domain.ErrStudentNotFound, http.StatusNotFound, apperrors.ErrorTypeNotFound},
		{"already voted", domain.ErrAlreadyVoted, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"duplicate candidate", domain.ErrDuplicateCandidate, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"position conflict", domain.ErrPositionConflict, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"not active", domain.ErrNotActive, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"outside window", domain.ErrOutsideWindow, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"invalid status", domain.ErrInvalidStatus, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"invalid transition", domain.ErrInvalidStateTransition, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"not tied", domain.ErrNotTied, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"version conflict", domain.ErrVersionConflict, http.StatusConflict, apperrors.ErrorTypeConflict},
		{"unverified", domain.ErrUnverified, http.StatusForbidden, apperrors.ErrorTypeAuthorization},
		{"scope mismatch", domain.ErrScopeMismatch, http.StatusForbidden, apperrors.ErrorTypeAuthorization},
		{"unknown candidate", domain.ErrUnknownCandidate, http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{"attendance too low", domain.ErrAttendanceTooLow, http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{"not winner", domain.ErrNotWinner, http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{"insufficient candidates", domain.ErrInsufficientCandidates, http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{"unexpected error", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := mapDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			assert.Equal(t, tt.wantType, appErr.Type)
		})
	}
}

func TestMapDomainErrorUnwrapsContext(t *testing.T) {
	wrapped := fmt.Errorf("casting vote: %w", domain.ErrAlreadyVoted)
	appErr := mapDomainError(wrapped)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
}

func TestMapDomainErrorPassesThroughAppErrors(t *testing.T) {
	original := apperrors.NewAuthorizationError("no")
	appErr := mapDomainError(original)
	assert.Same(t, original, appErr)
}

func TestDecodeBody(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"student_id":"s1"}`))
		var req addCandidateRequest
		require.NoError(t, decodeBody(r, &req))
		assert.Equal(t, "s1", req.StudentID)
	})

	t.Run("malformed json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))
		var req addCandidateRequest
		err := decodeBody(r, &req)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, mapDomainError(err).StatusCode)
	})
}
