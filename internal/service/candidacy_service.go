package service

import (
	"context"
	"fmt"

	"voteon/internal/domain"
	"voteon/internal/repository"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"
)

const auditModuleCandidacy = "candidacy"

// Audit actions emitted by candidacy transitions.
const (
	ActionNominationSubmitted = "NOMINATION_SUBMITTED"
	ActionCandidacyApproved   = "CANDIDACY_APPROVED"
	ActionCandidacyRejected   = "CANDIDACY_REJECTED"
	ActionApprovalRevoked     = "APPROVAL_REVOKED"
)

// NominationInput carries the campaign material a student submits when
// standing for a position.
type NominationInput struct {
	Position        string   `json:"position"`
	Manifesto       string   `json:"manifesto"`
	Bio             string   `json:"bio"`
	ManifestoPoints []string `json:"manifesto_points"`
	PhotoRef        string   `json:"photo_ref"`
}

// CandidacyService manages the per-student candidacy state machine:
// nomination, teacher approval, rejection and approval revocation.
type CandidacyService struct {
	students      repository.StudentRepository
	audit         AuditRecorder
	logger        *logger.Logger
	minAttendance float64
}

func NewCandidacyService(students repository.StudentRepository, audit AuditRecorder, log *logger.Logger) *CandidacyService {
	return &CandidacyService{
		students:      students,
		audit:         audit,
		logger:        log,
		minAttendance: domain.DefaultMinAttendance,
	}
}

// Nominate registers a student's candidacy with their campaign material.
// The attendance floor is checked here, at nomination time only.
func (s *CandidacyService) Nominate(ctx context.Context, studentID string, in NominationInput) (*domain.Student, error) {
	if in.Position == "" {
		return nil, apperrors.NewValidationError("invalid nomination", map[string]interface{}{
			"position": "position is required",
		})
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanNominate(student, s.minAttendance); err != nil {
		return nil, err
	}

	student.IsCandidate = true
	student.IsApproved = false
	student.Position = in.Position
	student.Manifesto = in.Manifesto
	student.Bio = in.Bio
	student.ManifestoPoints = in.ManifestoPoints
	student.PhotoRef = in.PhotoRef

	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to save nomination: %w", err)
	}

	s.audit.Record(ctx, ActionNominationSubmitted, auditModuleCandidacy,
		fmt.Sprintf("student %s nominated for %q", studentID, in.Position),
		studentID, domain.RoleStudent)
	return student, nil
}

// Approve moves a nominated candidacy to approved. Only the Nominated state
// accepts approval.
func (s *CandidacyService) Approve(ctx context.Context, actor domain.Identity, studentID string) (*domain.Student, error) {
	if actor.Role != domain.RoleTeacher && !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only teachers and election officials can approve candidacies")
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.CandidacyStage() != domain.StateNominated {
		return nil, domain.ErrInvalidStateTransition
	}

	student.IsApproved = true
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to approve candidacy: %w", err)
	}

	s.audit.Record(ctx, ActionCandidacyApproved, auditModuleCandidacy,
		fmt.Sprintf("candidacy of student %s approved", studentID),
		actor.ID, actor.Role)
	return student, nil
}

// Reject removes a pending or approved candidacy entirely, clearing all
// campaign material from the record.
func (s *CandidacyService) Reject(ctx context.Context, actor domain.Identity, studentID string) (*domain.Student, error) {
	if actor.Role != domain.RoleTeacher && !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only teachers and election officials can reject candidacies")
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !student.IsCandidate {
		return nil, domain.ErrInvalidStateTransition
	}

	student.ClearCandidacy()
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to reject candidacy: %w", err)
	}

	s.audit.Record(ctx, ActionCandidacyRejected, auditModuleCandidacy,
		fmt.Sprintf("candidacy of student %s rejected", studentID),
		actor.ID, actor.Role)
	return student, nil
}

// Revoke withdraws a previously granted approval, returning the candidacy
// to Nominated. Campaign material stays intact.
func (s *CandidacyService) Revoke(ctx context.Context, actor domain.Identity, studentID string) (*domain.Student, error) {
	if actor.Role != domain.RoleTeacher && !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only teachers and election officials can revoke approvals")
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.CandidacyStage() != domain.StateApproved {
		return nil, domain.ErrInvalidStateTransition
	}

	student.IsApproved = false
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to revoke approval: %w", err)
	}

	s.audit.Record(ctx, ActionApprovalRevoked, auditModuleCandidacy,
		fmt.Sprintf("approval of student %s revoked", studentID),
		actor.ID, actor.Role)
	return student, nil
}

// Pending lists candidacies waiting for teacher approval.
func (s *CandidacyService) Pending(ctx context.Context) ([]*domain.Student, error) {
	return s.students.ListPendingCandidates(ctx)
}
