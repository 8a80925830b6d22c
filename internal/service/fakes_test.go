package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voteon/internal/domain"
	"voteon/internal/repository"
	"voteon/pkg/logger"
)

func testLogger(t interface{ Cleanup(func()) }) *logger.Logger {
	log, _ := logger.New("error", "test")
	t.Cleanup(func() { _ = log.Sync() })
	return log
}

// memElectionRepo is an in-memory ElectionRepository with the same
// concurrency semantics as the Postgres implementation: version-guarded
// updates and an atomic cast-vote path.
type memElectionRepo struct {
	mu        sync.Mutex
	seq       int
	elections map[string]*domain.Election
}

func newMemElectionRepo() *memElectionRepo {
	return &memElectionRepo{elections: make(map[string]*domain.Election)}
}

func copyElection(e *domain.Election) *domain.Election {
	cp := *e
	cp.Candidates = append([]domain.CandidateEntry(nil), e.Candidates...)
	cp.Voters = append([]domain.VoterEntry(nil), e.Voters...)
	return &cp
}

func (r *memElectionRepo) Create(_ context.Context, e *domain.Election) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.ID = fmt.Sprintf("e%d", r.seq)
	e.Version = 1
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	r.elections[e.ID] = copyElection(e)
	return nil
}

func (r *memElectionRepo) GetByID(_ context.Context, id string) (*domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[id]
	if !ok {
		return nil, domain.ErrElectionNotFound
	}
	return copyElection(e), nil
}

func (r *memElectionRepo) List(_ context.Context, filter repository.ElectionFilter) ([]*domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Election
	for _, e := range r.elections {
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if e.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, copyElection(e))
	}
	return out, nil
}

func (r *memElectionRepo) Update(_ context.Context, e *domain.Election) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.elections[e.ID]
	if !ok {
		return domain.ErrElectionNotFound
	}
	if stored.Version != e.Version {
		return domain.ErrVersionConflict
	}
	e.Version++
	r.elections[e.ID] = copyElection(e)
	return nil
}

func (r *memElectionRepo) AddCandidate(_ context.Context, electionID string, entry domain.CandidateEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[electionID]
	if !ok {
		return domain.ErrElectionNotFound
	}
	if !e.AcceptsCandidates() {
		return domain.ErrInvalidStatus
	}
	if e.Candidate(entry.StudentID) != nil {
		return domain.ErrDuplicateCandidate
	}
	e.Candidates = append(e.Candidates, entry)
	e.Version++
	return nil
}

func (r *memElectionRepo) CastVote(_ context.Context, electionID, voterID, candidateID string, votedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[electionID]
	if !ok {
		return domain.ErrElectionNotFound
	}
	if e.Status != domain.StatusActive {
		return domain.ErrNotActive
	}
	if e.HasVoted(voterID) {
		return domain.ErrAlreadyVoted
	}
	entry := e.Candidate(candidateID)
	if entry == nil {
		return domain.ErrUnknownCandidate
	}
	e.Voters = append(e.Voters, domain.VoterEntry{StudentID: voterID, VotedAt: votedAt})
	entry.VotesCount++
	e.TotalVotes++
	e.Version++
	return nil
}

func (r *memElectionRepo) FindPositionConflict(_ context.Context, studentID, position, excludeElectionID string) (*domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.elections {
		if e.ID == excludeElectionID || e.IsTerminal() || e.Position != position {
			continue
		}
		if e.Candidate(studentID) != nil {
			return copyElection(e), nil
		}
	}
	return nil, nil
}

// memStudentRepo is an in-memory StudentRepository.
type memStudentRepo struct {
	mu       sync.Mutex
	seq      int
	students map[string]*domain.Student
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{students: make(map[string]*domain.Student)}
}

func copyStudent(s *domain.Student) *domain.Student {
	cp := *s
	cp.ManifestoPoints = append([]string(nil), s.ManifestoPoints...)
	if s.OTPExpiresAt != nil {
		t := *s.OTPExpiresAt
		cp.OTPExpiresAt = &t
	}
	return &cp
}

func (r *memStudentRepo) Create(_ context.Context, s *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if s.ID == "" {
		s.ID = fmt.Sprintf("s%d", r.seq)
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.students[s.ID] = copyStudent(s)
	return nil
}

func (r *memStudentRepo) GetByID(_ context.Context, id string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	return copyStudent(s), nil
}

func (r *memStudentRepo) GetByAdmissionNumber(_ context.Context, admissionNumber string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.AdmissionNumber == admissionNumber {
			return copyStudent(s), nil
		}
	}
	return nil, domain.ErrStudentNotFound
}

func (r *memStudentRepo) GetByEmail(_ context.Context, email string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == email {
			return copyStudent(s), nil
		}
	}
	return nil, domain.ErrStudentNotFound
}

func (r *memStudentRepo) Update(_ context.Context, s *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[s.ID]; !ok {
		return domain.ErrStudentNotFound
	}
	r.students[s.ID] = copyStudent(s)
	return nil
}

func (r *memStudentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return domain.ErrStudentNotFound
	}
	delete(r.students, id)
	return nil
}

func (r *memStudentRepo) ListByIDs(_ context.Context, ids []string) ([]*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Student
	for _, id := range ids {
		if s, ok := r.students[id]; ok {
			out = append(out, copyStudent(s))
		}
	}
	return out, nil
}

func (r *memStudentRepo) ListPendingCandidates(_ context.Context) ([]*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Student
	for _, s := range r.students {
		if s.IsCandidate && !s.IsApproved {
			out = append(out, copyStudent(s))
		}
	}
	return out, nil
}

func (r *memStudentRepo) ListClassWinners(_ context.Context) ([]*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Student
	for _, s := range r.students {
		if s.HasWon {
			out = append(out, copyStudent(s))
		}
	}
	return out, nil
}

func (r *memStudentRepo) PromoteClassWinners(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.students {
		if s.HasWon && !s.IsCollegeCandidate {
			s.IsCollegeCandidate = true
			n++
		}
	}
	return n, nil
}

// recordingAudit is a synchronous AuditRecorder for assertions.
type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *recordingAudit) Record(_ context.Context, action, module, details, actorID, actorRole string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, domain.AuditEntry{
		Action: action, Module: module, Details: details,
		ActorID: actorID, ActorRole: actorRole,
	})
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

// stubNotifier records OTP sends and can be told to fail.
type stubNotifier struct {
	mu    sync.Mutex
	fail  error
	sent  []string
	codes map[string]string
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{codes: make(map[string]string)}
}

func (n *stubNotifier) SendOTP(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, email)
	n.codes[email] = code
	return nil
}

func (n *stubNotifier) codeFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}
