package domain

import "errors"

// Sentinel errors for business-rule violations. Handlers map these onto the
// HTTP error taxonomy; services wrap them with context via %w.
var (
	ErrElectionNotFound = errors.New("election not found")
	ErrStudentNotFound  = errors.New("student not found")

	// Vote eligibility failures, in evaluation order.
	ErrNotActive        = errors.New("election is not active")
	ErrOutsideWindow    = errors.New("voting is not open at this time")
	ErrUnverified       = errors.New("account is not verified")
	ErrScopeMismatch    = errors.New("student does not belong to this class/section")
	ErrAlreadyVoted     = errors.New("student has already voted in this election")
	ErrUnknownCandidate = errors.New("candidate is not enrolled in this election")

	// Candidacy and roster failures.
	ErrDuplicateCandidate = errors.New("student is already a candidate in this election")
	ErrPositionConflict   = errors.New("student is already contesting this position in another election")
	ErrAttendanceTooLow   = errors.New("attendance is below the required minimum")
	ErrAlreadyCandidate   = errors.New("student already holds an active candidacy")
	ErrNotWinner          = errors.New("only class election winners can enter college elections")

	// Lifecycle failures.
	ErrInvalidStatus                  = errors.New("operation not allowed in current election status")
	ErrInvalidStateTransition         = errors.New("invalid candidacy state transition")
	ErrInsufficientCandidates         = errors.New("election needs at least 2 candidates")
	ErrInsufficientApprovedCandidates = errors.New("election needs at least 2 approved candidates to start")
	ErrNotTied                        = errors.New("election does not have a tie to resolve")

	// Concurrency failure after bounded retries.
	ErrVersionConflict = errors.New("election was modified concurrently")
)
