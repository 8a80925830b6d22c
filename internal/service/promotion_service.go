package service

import (
	"context"
	"fmt"

	"voteon/internal/domain"
	"voteon/internal/repository"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"
)

const auditModulePromotion = "promotion"

// Audit actions emitted by the promotion pipeline.
const (
	ActionWinnersPromoted       = "CLASS_WINNERS_PROMOTED"
	ActionWinnerAddedToElection = "WINNER_ADDED_TO_COLLEGE_ELECTION"
)

// PromotionService carries class election winners into the college tier:
// the batch promotion flip and the per-winner enrollment into a college
// election.
type PromotionService struct {
	students  repository.StudentRepository
	elections repository.ElectionRepository
	cache     *CacheService
	audit     AuditRecorder
	matcher   domain.ClassMatcher
	logger    *logger.Logger
}

func NewPromotionService(
	students repository.StudentRepository,
	elections repository.ElectionRepository,
	cache *CacheService,
	audit AuditRecorder,
	matcher domain.ClassMatcher,
	log *logger.Logger,
) *PromotionService {
	return &PromotionService{
		students:  students,
		elections: elections,
		cache:     cache,
		audit:     audit,
		matcher:   matcher,
		logger:    log,
	}
}

// PromoteClassWinners flags every class winner not yet promoted as a
// college candidate. Idempotent: a second run promotes nobody.
func (s *PromotionService) PromoteClassWinners(ctx context.Context, actor domain.Identity) (int64, error) {
	if !actor.IsOfficial() {
		return 0, apperrors.NewAuthorizationError("only election officials can promote class winners")
	}

	promoted, err := s.students.PromoteClassWinners(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to promote class winners: %w", err)
	}

	if promoted > 0 {
		s.cache.InvalidateClassWinners(ctx)
	}
	s.audit.Record(ctx, ActionWinnersPromoted, auditModulePromotion,
		fmt.Sprintf("promoted %d class winners to college candidates", promoted),
		actor.ID, actor.Role)
	return promoted, nil
}

// AddWinnerToCollegeElection enrolls one class winner onto a college
// election's roster. Only students who actually won their class election
// may enter the college tier.
func (s *PromotionService) AddWinnerToCollegeElection(ctx context.Context, actor domain.Identity, electionID, studentID string) (*domain.Election, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can enroll college candidates")
	}

	e, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if e.Type != domain.TierCollege {
		return nil, apperrors.NewValidationError("not a college election", map[string]interface{}{
			"election_id": electionID,
		})
	}
	if !e.AcceptsCandidates() {
		return nil, domain.ErrInvalidStatus
	}
	if e.Candidate(studentID) != nil {
		return nil, domain.ErrDuplicateCandidate
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !student.HasWon {
		return nil, domain.ErrNotWinner
	}
	if conflict, err := s.elections.FindPositionConflict(ctx, studentID, e.Position, e.ID); err != nil {
		return nil, fmt.Errorf("failed to check position conflicts: %w", err)
	} else if conflict != nil {
		return nil, fmt.Errorf("%w (election %s)", domain.ErrPositionConflict, conflict.ID)
	}

	entry := domain.CandidateEntry{StudentID: studentID}
	if err := s.elections.AddCandidate(ctx, electionID, entry); err != nil {
		return nil, err
	}

	if !student.IsCollegeCandidate {
		student.IsCollegeCandidate = true
		if err := s.students.Update(ctx, student); err != nil {
			return nil, fmt.Errorf("failed to flag college candidate: %w", err)
		}
		s.cache.InvalidateClassWinners(ctx)
	}

	s.cache.InvalidateElection(ctx, electionID)
	s.audit.Record(ctx, ActionWinnerAddedToElection, auditModulePromotion,
		fmt.Sprintf("enrolled class winner %s into college election %s", studentID, electionID),
		actor.ID, actor.Role)

	return s.elections.GetByID(ctx, electionID)
}

// ClassWinners lists the current class election winners, cache-aside.
func (s *PromotionService) ClassWinners(ctx context.Context) ([]*domain.Student, error) {
	if cached := s.cache.GetClassWinners(ctx); cached != nil {
		winners := make([]*domain.Student, len(cached))
		for i := range cached {
			winners[i] = &cached[i]
		}
		return winners, nil
	}

	winners, err := s.students.ListClassWinners(ctx)
	if err != nil {
		return nil, err
	}

	flat := make([]domain.Student, len(winners))
	for i, w := range winners {
		flat[i] = *w
	}
	s.cache.SetClassWinners(ctx, flat)
	return winners, nil
}
