package repository

import (
	"context"
	"time"

	"voteon/internal/domain"
)

// ElectionFilter narrows election listings.
type ElectionFilter struct {
	Type     domain.Tier
	Status   domain.ElectionStatus
	Statuses []domain.ElectionStatus
}

// ElectionRepository defines storage operations for the Election aggregate.
// Every mutation is conditioned on the aggregate's version (or an equivalent
// status guard) so concurrent writers cannot silently overwrite each other.
type ElectionRepository interface {
	// Create persists a new election in Draft
	Create(ctx context.Context, e *domain.Election) error

	// GetByID loads the full aggregate: election row, roster, voter ledger
	GetByID(ctx context.Context, id string) (*domain.Election, error)

	// List returns elections matching the filter, newest first
	List(ctx context.Context, filter ElectionFilter) ([]*domain.Election, error)

	// Update writes the mutable election fields guarded by e.Version,
	// returning domain.ErrVersionConflict when the stored version moved
	Update(ctx context.Context, e *domain.Election) error

	// AddCandidate enrolls a student while the election still accepts
	// candidates; fails with ErrDuplicateCandidate or ErrInvalidStatus
	AddCandidate(ctx context.Context, electionID string, entry domain.CandidateEntry) error

	// CastVote applies ledger-append + tally increments as one atomic unit,
	// conditioned on the voter not being present and the election being
	// Active. Returns ErrAlreadyVoted, ErrUnknownCandidate or ErrNotActive.
	CastVote(ctx context.Context, electionID, voterID, candidateID string, votedAt time.Time) error

	// FindPositionConflict returns a non-terminal election (other than
	// excludeElectionID) in which the student already contests the position,
	// or nil
	FindPositionConflict(ctx context.Context, studentID, position, excludeElectionID string) (*domain.Election, error)
}

// StudentRepository defines storage operations for student records.
type StudentRepository interface {
	Create(ctx context.Context, s *domain.Student) error
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	GetByAdmissionNumber(ctx context.Context, admissionNumber string) (*domain.Student, error)
	GetByEmail(ctx context.Context, email string) (*domain.Student, error)
	Update(ctx context.Context, s *domain.Student) error
	Delete(ctx context.Context, id string) error
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Student, error)
	ListPendingCandidates(ctx context.Context) ([]*domain.Student, error)
	ListClassWinners(ctx context.Context) ([]*domain.Student, error)

	// PromoteClassWinners flips isCollegeCandidate for every class winner
	// not yet promoted, in one statement. Idempotent; returns the number of
	// students promoted by this call.
	PromoteClassWinners(ctx context.Context) (int64, error)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Election ElectionRepository
	Student  StudentRepository
	Audit    AuditRepository
}
