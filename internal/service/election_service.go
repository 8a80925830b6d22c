package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voteon/internal/domain"
	"voteon/internal/repository"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"

	"go.uber.org/zap"
)

// maxVersionRetries bounds optimistic-concurrency retries on election
// mutations before surfacing the conflict to the caller.
const maxVersionRetries = 3

const auditModuleElections = "elections"

// Audit actions emitted by the election lifecycle.
const (
	ActionElectionCreated   = "ELECTION_CREATED"
	ActionCandidateAdded    = "CANDIDATE_ADDED"
	ActionElectionScheduled = "ELECTION_SCHEDULED"
	ActionElectionStarted   = "ELECTION_STARTED"
	ActionVoteCast          = "VOTE_CAST"
	ActionElectionEnded     = "ELECTION_ENDED"
	ActionTieResolved       = "TIE_RESOLVED"
	ActionElectionCancelled = "ELECTION_CANCELLED"
)

// CreateElectionInput carries the caller-supplied fields for a new election.
type CreateElectionInput struct {
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	Type                  domain.Tier `json:"type"`
	Position              string      `json:"position"`
	ClassName             string      `json:"class_name"`
	Section               string      `json:"section"`
	StartDate             time.Time   `json:"start_date"`
	EndDate               time.Time   `json:"end_date"`
	MinAttendanceRequired float64     `json:"min_attendance_required"`
}

// CandidateResult is one ranked row of an election's results.
type CandidateResult struct {
	StudentID  string  `json:"student_id"`
	Name       string  `json:"name"`
	VotesCount int     `json:"votes_count"`
	Percentage float64 `json:"percentage"`
	Rank       int     `json:"rank"`
}

// ElectionResults is the ranked results payload for one election.
type ElectionResults struct {
	ElectionID string                `json:"election_id"`
	Title      string                `json:"title"`
	Position   string                `json:"position"`
	Status     domain.ElectionStatus `json:"status"`
	TotalVotes int                   `json:"total_votes"`
	WinnerID   string                `json:"winner_id,omitempty"`
	Candidates []CandidateResult     `json:"candidates"`
}

// EndResult reports how an election concluded: either a single winner or
// the full set of tied candidates awaiting manual resolution.
type EndResult struct {
	Election *domain.Election        `json:"election"`
	Winner   *domain.CandidateEntry  `json:"winner,omitempty"`
	Tied     []domain.CandidateEntry `json:"tied,omitempty"`
}

// StudentElectionView is an election as seen by one student: the election
// plus whether that student has already voted in it.
type StudentElectionView struct {
	Election *domain.Election `json:"election"`
	HasVoted bool             `json:"has_voted"`
}

// ElectionService owns the election lifecycle: creation, roster changes,
// state transitions, vote casting and result computation.
type ElectionService struct {
	elections repository.ElectionRepository
	students  repository.StudentRepository
	cache     *CacheService
	audit     AuditRecorder
	matcher   domain.ClassMatcher
	logger    *logger.Logger
	now       func() time.Time
}

func NewElectionService(
	elections repository.ElectionRepository,
	students repository.StudentRepository,
	cache *CacheService,
	audit AuditRecorder,
	matcher domain.ClassMatcher,
	log *logger.Logger,
) *ElectionService {
	return &ElectionService{
		elections: elections,
		students:  students,
		cache:     cache,
		audit:     audit,
		matcher:   matcher,
		logger:    log,
		now:       time.Now,
	}
}

// Create validates the input and persists a new election in Draft.
func (s *ElectionService) Create(ctx context.Context, actor domain.Identity, in CreateElectionInput) (*domain.Election, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can create elections")
	}
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	minAttendance := in.MinAttendanceRequired
	if minAttendance == 0 {
		minAttendance = domain.DefaultMinAttendance
	}

	e := &domain.Election{
		Title:                 in.Title,
		Description:           in.Description,
		Type:                  in.Type,
		Position:              in.Position,
		ClassName:             in.ClassName,
		Section:               in.Section,
		StartDate:             in.StartDate,
		EndDate:               in.EndDate,
		Status:                domain.StatusDraft,
		MinAttendanceRequired: minAttendance,
		CreatedBy:             actor.ID,
		CreatedByRole:         actor.Role,
	}

	if err := s.elections.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create election: %w", err)
	}

	s.audit.Record(ctx, ActionElectionCreated, auditModuleElections,
		fmt.Sprintf("created %s election %q for position %q", e.Type, e.Title, e.Position),
		actor.ID, actor.Role)

	return e, nil
}

func validateCreateInput(in CreateElectionInput) error {
	details := map[string]interface{}{}
	if in.Title == "" {
		details["title"] = "title is required"
	}
	if in.Position == "" {
		details["position"] = "position is required"
	}
	if in.Type != domain.TierClass && in.Type != domain.TierCollege {
		details["type"] = "type must be class or college"
	}
	if in.Type == domain.TierClass {
		if in.ClassName == "" {
			details["class_name"] = "class_name is required for class elections"
		}
		if in.Section == "" {
			details["section"] = "section is required for class elections"
		}
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		details["dates"] = "start_date and end_date are required"
	} else if !in.EndDate.After(in.StartDate) {
		details["dates"] = "end_date must come after start_date"
	}
	if in.MinAttendanceRequired < 0 || in.MinAttendanceRequired > 100 {
		details["min_attendance_required"] = "must be between 0 and 100"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid election input", details)
	}
	return nil
}

// Get loads one election, cache-aside.
func (s *ElectionService) Get(ctx context.Context, id string) (*domain.Election, error) {
	if cached := s.cache.GetElection(ctx, id); cached != nil {
		return cached, nil
	}
	e, err := s.elections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetElection(ctx, e)
	return e, nil
}

// List returns elections matching the filter, newest first.
func (s *ElectionService) List(ctx context.Context, filter repository.ElectionFilter) ([]*domain.Election, error) {
	return s.elections.List(ctx, filter)
}

// AddCandidate enrolls an eligible student onto an election's roster.
// Eligibility here is roster-level: the election still accepts candidates,
// the student is not enrolled yet, holds no conflicting candidacy for the
// same position elsewhere, meets the attendance floor, and belongs to the
// election's scope. College elections auto-approve the enrollment on the
// student record.
func (s *ElectionService) AddCandidate(ctx context.Context, actor domain.Identity, electionID, studentID string) (*domain.Election, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can add candidates")
	}

	e, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
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
	if conflict, err := s.elections.FindPositionConflict(ctx, studentID, e.Position, e.ID); err != nil {
		return nil, fmt.Errorf("failed to check position conflicts: %w", err)
	} else if conflict != nil {
		return nil, fmt.Errorf("%w (election %s)", domain.ErrPositionConflict, conflict.ID)
	}
	if student.AttendancePercent < e.MinAttendanceRequired {
		return nil, domain.ErrAttendanceTooLow
	}
	if !domain.InScope(e, student, s.matcher) {
		return nil, domain.ErrScopeMismatch
	}

	entry := domain.CandidateEntry{StudentID: studentID, AddedAt: s.now()}
	if err := s.elections.AddCandidate(ctx, electionID, entry); err != nil {
		return nil, err
	}

	// College-tier enrollments skip the teacher approval queue.
	if e.Type == domain.TierCollege && !student.Votable() {
		student.IsCandidate = true
		student.IsApproved = true
		student.Position = e.Position
		if err := s.students.Update(ctx, student); err != nil {
			s.logger.Warn("failed to auto-approve college candidate",
				zap.String("student_id", studentID), zap.Error(err))
		}
	}

	s.cache.InvalidateElection(ctx, electionID)
	s.audit.Record(ctx, ActionCandidateAdded, auditModuleElections,
		fmt.Sprintf("added candidate %s to election %s", studentID, electionID),
		actor.ID, actor.Role)

	return s.elections.GetByID(ctx, electionID)
}

// Schedule moves a Draft election with a full enough roster to Scheduled.
func (s *ElectionService) Schedule(ctx context.Context, actor domain.Identity, electionID string) (*domain.Election, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can schedule elections")
	}
	e, err := s.updateWithRetry(ctx, electionID, func(e *domain.Election) error {
		if e.Status != domain.StatusDraft {
			return domain.ErrInvalidStatus
		}
		if len(e.Candidates) < 2 {
			return domain.ErrInsufficientCandidates
		}
		e.Status = domain.StatusScheduled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, ActionElectionScheduled, auditModuleElections,
		fmt.Sprintf("scheduled election %s", electionID), actor.ID, actor.Role)
	return e, nil
}

// Start activates a Draft or Scheduled election. At least two enrolled
// candidates must be approved (or carry an equivalent standing) for voting
// to open; the start date is stamped with the actual activation time.
func (s *ElectionService) Start(ctx context.Context, actor domain.Identity, electionID string) (*domain.Election, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can start elections")
	}
	e, err := s.updateWithRetry(ctx, electionID, func(e *domain.Election) error {
		if e.Status != domain.StatusDraft && e.Status != domain.StatusScheduled {
			return domain.ErrInvalidStatus
		}
		if len(e.Candidates) < 2 {
			return domain.ErrInsufficientCandidates
		}
		enrolled, err := s.students.ListByIDs(ctx, e.CandidateIDs())
		if err != nil {
			return fmt.Errorf("failed to load candidates: %w", err)
		}
		votable := 0
		for _, st := range enrolled {
			if st.Votable() {
				votable++
			}
		}
		if votable < 2 {
			return domain.ErrInsufficientApprovedCandidates
		}
		e.Status = domain.StatusActive
		e.StartDate = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, ActionElectionStarted, auditModuleElections,
		fmt.Sprintf("started election %s", electionID), actor.ID, actor.Role)
	return e, nil
}

// Vote casts one vote. The cache lock guards against double submits; the
// database transaction is the exactly-once authority.
func (s *ElectionService) Vote(ctx context.Context, voterID, electionID, candidateID string) error {
	if !s.cache.TryVoteLock(ctx, electionID, voterID) {
		return domain.ErrAlreadyVoted
	}
	if s.cache.HasVoted(ctx, electionID, voterID) {
		return domain.ErrAlreadyVoted
	}

	e, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		s.cache.ReleaseVoteLock(ctx, electionID, voterID)
		return err
	}
	voter, err := s.students.GetByID(ctx, voterID)
	if err != nil {
		s.cache.ReleaseVoteLock(ctx, electionID, voterID)
		return err
	}
	if err := domain.CanVote(e, voter, candidateID, s.now(), s.matcher); err != nil {
		s.cache.ReleaseVoteLock(ctx, electionID, voterID)
		return err
	}

	if err := s.elections.CastVote(ctx, electionID, voterID, candidateID, s.now()); err != nil {
		if !errors.Is(err, domain.ErrAlreadyVoted) {
			s.cache.ReleaseVoteLock(ctx, electionID, voterID)
		}
		return err
	}

	s.cache.MarkVoted(ctx, electionID, voterID)
	s.cache.InvalidateElection(ctx, electionID)
	s.audit.Record(ctx, ActionVoteCast, auditModuleElections,
		fmt.Sprintf("vote cast in election %s", electionID), voterID, domain.RoleStudent)
	return nil
}

// End closes an Active election. A clear leader wins and the result is
// written back to the student record; equal top tallies park the election
// in Tie for manual resolution.
func (s *ElectionService) End(ctx context.Context, actor domain.Identity, electionID string) (*EndResult, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can end elections")
	}

	var winner *domain.CandidateEntry
	var tied []domain.CandidateEntry
	e, err := s.updateWithRetry(ctx, electionID, func(e *domain.Election) error {
		if e.Status != domain.StatusActive {
			return domain.ErrInvalidStatus
		}
		winner, tied = e.Outcome()
		if winner == nil && tied == nil {
			return domain.ErrInsufficientCandidates
		}
		if winner == nil {
			e.Status = domain.StatusTie
			return nil
		}
		e.Status = domain.StatusCompleted
		e.WinnerID = winner.StudentID
		e.EndDate = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if winner != nil {
		if err := s.recordWin(ctx, e, winner); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, ActionElectionEnded, auditModuleElections,
			fmt.Sprintf("election %s completed, winner %s with %d votes", electionID, winner.StudentID, winner.VotesCount),
			actor.ID, actor.Role)
	} else {
		s.audit.Record(ctx, ActionElectionEnded, auditModuleElections,
			fmt.Sprintf("election %s ended in a tie between %d candidates", electionID, len(tied)),
			actor.ID, actor.Role)
	}

	return &EndResult{Election: e, Winner: winner, Tied: tied}, nil
}

// ResolveTie declares one of the tied candidates the winner of an election
// parked in Tie.
func (s *ElectionService) ResolveTie(ctx context.Context, actor domain.Identity, electionID, winnerID string) (*EndResult, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can resolve ties")
	}

	var winner *domain.CandidateEntry
	e, err := s.updateWithRetry(ctx, electionID, func(e *domain.Election) error {
		if e.Status != domain.StatusTie {
			return domain.ErrNotTied
		}
		entry := e.Candidate(winnerID)
		if entry == nil {
			return domain.ErrUnknownCandidate
		}
		winner = entry
		e.Status = domain.StatusCompleted
		e.WinnerID = winnerID
		e.EndDate = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.recordWin(ctx, e, winner); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, ActionTieResolved, auditModuleElections,
		fmt.Sprintf("tie in election %s resolved in favour of %s", electionID, winnerID),
		actor.ID, actor.Role)

	return &EndResult{Election: e, Winner: winner}, nil
}

// recordWin writes the election outcome back onto the winning student
// record. Class wins also flag the student for the college tier.
func (s *ElectionService) recordWin(ctx context.Context, e *domain.Election, winner *domain.CandidateEntry) error {
	student, err := s.students.GetByID(ctx, winner.StudentID)
	if err != nil {
		return fmt.Errorf("failed to load winner %s: %w", winner.StudentID, err)
	}
	student.ApplyWin(e.Type, e.Position, winner.VotesCount)
	if err := s.students.Update(ctx, student); err != nil {
		return fmt.Errorf("failed to record win for %s: %w", winner.StudentID, err)
	}
	if e.Type == domain.TierClass {
		s.cache.InvalidateClassWinners(ctx)
	}
	return nil
}

// Cancel marks a non-terminal election Cancelled.
func (s *ElectionService) Cancel(ctx context.Context, actor domain.Identity, electionID string) (*domain.Election, error) {
	if !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only election officials can cancel elections")
	}
	e, err := s.updateWithRetry(ctx, electionID, func(e *domain.Election) error {
		if e.IsTerminal() {
			return domain.ErrInvalidStatus
		}
		e.Status = domain.StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, ActionElectionCancelled, auditModuleElections,
		fmt.Sprintf("cancelled election %s", electionID), actor.ID, actor.Role)
	return e, nil
}

// Results computes the ranked results payload, cache-aside with a short TTL
// because tallies move while voting is open.
func (s *ElectionService) Results(ctx context.Context, electionID string) (*ElectionResults, error) {
	if cached := s.cache.GetResults(ctx, electionID); cached != nil {
		return cached, nil
	}

	e, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	if len(e.Candidates) > 0 {
		enrolled, err := s.students.ListByIDs(ctx, e.CandidateIDs())
		if err != nil {
			return nil, fmt.Errorf("failed to load candidates: %w", err)
		}
		for _, st := range enrolled {
			names[st.ID] = st.Name
		}
	}

	sorted := e.SortedResults()
	results := &ElectionResults{
		ElectionID: e.ID,
		Title:      e.Title,
		Position:   e.Position,
		Status:     e.Status,
		TotalVotes: e.TotalVotes,
		WinnerID:   e.WinnerID,
		Candidates: make([]CandidateResult, 0, len(sorted)),
	}
	for i, c := range sorted {
		pct := 0.0
		if e.TotalVotes > 0 {
			pct = float64(c.VotesCount) / float64(e.TotalVotes) * 100
		}
		results.Candidates = append(results.Candidates, CandidateResult{
			StudentID:  c.StudentID,
			Name:       names[c.StudentID],
			VotesCount: c.VotesCount,
			Percentage: pct,
			Rank:       i + 1,
		})
	}

	s.cache.SetResults(ctx, electionID, results)
	return results, nil
}

// ElectionsForStudent lists the elections visible to one student (scheduled,
// active or completed, within their scope) with a per-election voted flag.
func (s *ElectionService) ElectionsForStudent(ctx context.Context, studentID string) ([]StudentElectionView, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	elections, err := s.elections.List(ctx, repository.ElectionFilter{
		Statuses: []domain.ElectionStatus{domain.StatusScheduled, domain.StatusActive, domain.StatusTie, domain.StatusCompleted},
	})
	if err != nil {
		return nil, err
	}

	views := make([]StudentElectionView, 0, len(elections))
	for _, e := range elections {
		if !domain.InScope(e, student, s.matcher) {
			continue
		}
		views = append(views, StudentElectionView{Election: e, HasVoted: e.HasVoted(studentID)})
	}
	return views, nil
}

// updateWithRetry runs a read-mutate-write cycle against the aggregate,
// retrying a bounded number of times when another writer bumped the version
// in between.
func (s *ElectionService) updateWithRetry(ctx context.Context, electionID string, mutate func(*domain.Election) error) (*domain.Election, error) {
	var lastErr error
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		e, err := s.elections.GetByID(ctx, electionID)
		if err != nil {
			return nil, err
		}
		if err := mutate(e); err != nil {
			return nil, err
		}
		if err := s.elections.Update(ctx, e); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.cache.InvalidateElection(ctx, electionID)
		return e, nil
	}
	return nil, lastErr
}
