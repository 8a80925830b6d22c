package domain

import (
	"sort"
	"time"
)

// ElectionStatus is the lifecycle state of an election.
type ElectionStatus string

const (
	StatusDraft     ElectionStatus = "Draft"
	StatusScheduled ElectionStatus = "Scheduled"
	StatusActive    ElectionStatus = "Active"
	StatusTie       ElectionStatus = "Tie"
	StatusCompleted ElectionStatus = "Completed"
	StatusCancelled ElectionStatus = "Cancelled"
)

// NonTerminalStatuses are the statuses during which a candidacy in an
// election still blocks the same student from contesting the same position
// elsewhere.
var NonTerminalStatuses = []ElectionStatus{StatusDraft, StatusScheduled, StatusActive, StatusTie}

// CandidateEntry is one candidate's enrollment in a specific election.
type CandidateEntry struct {
	StudentID  string    `json:"student_id"`
	VotesCount int       `json:"votes_count"`
	AddedAt    time.Time `json:"added_at"`
}

// VoterEntry is one row of the append-only voter ledger.
type VoterEntry struct {
	StudentID string    `json:"student_id"`
	VotedAt   time.Time `json:"voted_at"`
}

// Election owns one election's full lifecycle: roster, voter ledger,
// tallies, status and winner. candidates, voters, totalVotes, status and
// winner are mutated only through this aggregate.
type Election struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	Description           string           `json:"description,omitempty"`
	Type                  Tier             `json:"type"`
	Position              string           `json:"position"`
	ClassName             string           `json:"class_name,omitempty"`
	Section               string           `json:"section,omitempty"`
	StartDate             time.Time        `json:"start_date"`
	EndDate               time.Time        `json:"end_date"`
	Status                ElectionStatus   `json:"status"`
	Candidates            []CandidateEntry `json:"candidates"`
	Voters                []VoterEntry     `json:"voters"`
	WinnerID              string           `json:"winner_id,omitempty"`
	TotalVotes            int              `json:"total_votes"`
	MinAttendanceRequired float64          `json:"min_attendance_required"`
	CreatedBy             string           `json:"created_by,omitempty"`
	CreatedByRole         string           `json:"created_by_role,omitempty"`
	Version               int64            `json:"version"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// DefaultMinAttendance is applied when an election is created without an
// explicit attendance threshold.
const DefaultMinAttendance = 75

// IsTerminal reports whether the election permits no further mutation.
func (e *Election) IsTerminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusCancelled
}

// AcceptsCandidates reports whether the roster may still change.
func (e *Election) AcceptsCandidates() bool {
	return e.Status == StatusDraft || e.Status == StatusScheduled
}

// WindowOpen reports whether now falls inside the voting window.
func (e *Election) WindowOpen(now time.Time) bool {
	return !now.Before(e.StartDate) && !now.After(e.EndDate)
}

// HasVoted reports whether the student already appears in the voter ledger.
func (e *Election) HasVoted(studentID string) bool {
	for _, v := range e.Voters {
		if v.StudentID == studentID {
			return true
		}
	}
	return false
}

// Candidate returns the enrollment entry for studentID, or nil.
func (e *Election) Candidate(studentID string) *CandidateEntry {
	for i := range e.Candidates {
		if e.Candidates[i].StudentID == studentID {
			return &e.Candidates[i]
		}
	}
	return nil
}

// CandidateIDs returns the enrolled student IDs in roster order.
func (e *Election) CandidateIDs() []string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = c.StudentID
	}
	return ids
}

// SortedResults returns the candidates ordered by votes descending. Roster
// order breaks ties so the ordering is stable across calls.
func (e *Election) SortedResults() []CandidateEntry {
	sorted := make([]CandidateEntry, len(e.Candidates))
	copy(sorted, e.Candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VotesCount > sorted[j].VotesCount
	})
	return sorted
}

// Outcome inspects the tallies at election end. A tie is strictly the top
// two tallies being numerically equal; in that case the full tied set is
// returned and winner is nil. Otherwise the single top candidate wins.
func (e *Election) Outcome() (winner *CandidateEntry, tied []CandidateEntry) {
	sorted := e.SortedResults()
	if len(sorted) == 0 {
		return nil, nil
	}
	if len(sorted) >= 2 && sorted[0].VotesCount == sorted[1].VotesCount {
		top := sorted[0].VotesCount
		for _, c := range sorted {
			if c.VotesCount == top {
				tied = append(tied, c)
			}
		}
		return nil, tied
	}
	return &sorted[0], nil
}

// TallyConsistent verifies totalVotes == sum of candidate tallies == ledger
// size. Storage enforces this transactionally; the check exists for reads
// of documents written by older code paths.
func (e *Election) TallyConsistent() bool {
	sum := 0
	for _, c := range e.Candidates {
		sum += c.VotesCount
	}
	return sum == e.TotalVotes && len(e.Voters) == e.TotalVotes
}
