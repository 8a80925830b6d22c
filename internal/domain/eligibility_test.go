package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassMatcher_Exact(t *testing.T) {
	m := NewClassMatcher(MatchExact)

	tests := []struct {
		name                       string
		sClass, sSection           string
		eClass, eSection           string
		want                       bool
	}{
		{name: "identical", sClass: "10", sSection: "A", eClass: "10", eSection: "A", want: true},
		{name: "case insensitive", sClass: "10", sSection: "a", eClass: "10", eSection: "A", want: true},
		{name: "different section", sClass: "10", sSection: "B", eClass: "10", eSection: "A", want: false},
		{name: "substring is not a match", sClass: "10A", sSection: "A", eClass: "10", eSection: "A", want: false},
		{name: "prefix collision rejected", sClass: "110", sSection: "A", eClass: "10", eSection: "A", want: false},
		{name: "both sections empty", sClass: "10", sSection: "", eClass: "10", eSection: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.sClass, tt.sSection, tt.eClass, tt.eSection))
		})
	}
}

func TestClassMatcher_Normalized(t *testing.T) {
	m := NewClassMatcher(MatchNormalized)

	assert.True(t, m.Matches(" Grade 10 ", "A", "grade  10", "a"))
	assert.False(t, m.Matches("Grade 10", "A", "Grade 11", "A"))
}

func TestClassMatcher_LegacyFuzzy(t *testing.T) {
	m := NewClassMatcher(MatchLegacyFuzzy)

	tests := []struct {
		name             string
		sClass, sSection string
		eClass, eSection string
		want             bool
	}{
		{name: "containment either way", sClass: "10A", sSection: "A", eClass: "10", eSection: "A", want: true},
		{name: "known false positive on prefix", sClass: "110", sSection: "A", eClass: "10", eSection: "A", want: true},
		{name: "both sections empty", sClass: "10", sSection: "", eClass: "10", eSection: "", want: true},
		{name: "one section empty", sClass: "10", sSection: "A", eClass: "10", eSection: "", want: false},
		{name: "unrelated classes", sClass: "12", sSection: "A", eClass: "10", eSection: "A", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.sClass, tt.sSection, tt.eClass, tt.eSection))
		})
	}
}

func TestNewClassMatcher_DefaultsToExact(t *testing.T) {
	m := NewClassMatcher("nonsense")
	assert.False(t, m.Matches("10A", "A", "10", "A"))
}

func TestCanNominate(t *testing.T) {
	tests := []struct {
		name    string
		student Student
		wantErr error
	}{
		{name: "eligible", student: Student{AttendancePercent: 80}, wantErr: nil},
		{name: "at threshold", student: Student{AttendancePercent: 75}, wantErr: nil},
		{name: "attendance too low", student: Student{AttendancePercent: 60}, wantErr: ErrAttendanceTooLow},
		{name: "already a candidate", student: Student{AttendancePercent: 90, IsCandidate: true}, wantErr: ErrAlreadyCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanNominate(&tt.student, 75)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func voteFixture() (*Election, *Student) {
	now := time.Now()
	e := &Election{
		ID:        "e1",
		Type:      TierClass,
		ClassName: "10",
		Section:   "A",
		Status:    StatusActive,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		Candidates: []CandidateEntry{
			{StudentID: "c1"},
			{StudentID: "c2"},
		},
	}
	voter := &Student{ID: "v1", ClassName: "10", Section: "A", IsVerified: true}
	return e, voter
}

func TestCanVote(t *testing.T) {
	matcher := NewClassMatcher(MatchExact)
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		e, voter := voteFixture()
		require.NoError(t, CanVote(e, voter, "c1", now, matcher))
	})

	t.Run("not active", func(t *testing.T) {
		e, voter := voteFixture()
		e.Status = StatusScheduled
		assert.ErrorIs(t, CanVote(e, voter, "c1", now, matcher), ErrNotActive)
	})

	t.Run("outside window", func(t *testing.T) {
		e, voter := voteFixture()
		e.EndDate = now.Add(-time.Minute)
		assert.ErrorIs(t, CanVote(e, voter, "c1", now, matcher), ErrOutsideWindow)
	})

	t.Run("unverified voter", func(t *testing.T) {
		e, voter := voteFixture()
		voter.IsVerified = false
		assert.ErrorIs(t, CanVote(e, voter, "c1", now, matcher), ErrUnverified)
	})

	t.Run("scope mismatch", func(t *testing.T) {
		e, voter := voteFixture()
		voter.ClassName = "11"
		assert.ErrorIs(t, CanVote(e, voter, "c1", now, matcher), ErrScopeMismatch)
	})

	t.Run("college election ignores scope", func(t *testing.T) {
		e, voter := voteFixture()
		e.Type = TierCollege
		voter.ClassName = "11"
		assert.NoError(t, CanVote(e, voter, "c1", now, matcher))
	})

	t.Run("already voted", func(t *testing.T) {
		e, voter := voteFixture()
		e.Voters = []VoterEntry{{StudentID: voter.ID}}
		assert.ErrorIs(t, CanVote(e, voter, "c1", now, matcher), ErrAlreadyVoted)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		e, voter := voteFixture()
		assert.ErrorIs(t, CanVote(e, voter, "nobody", now, matcher), ErrUnknownCandidate)
	})
}

func TestInScope(t *testing.T) {
	matcher := NewClassMatcher(MatchExact)
	e := &Election{Type: TierClass, ClassName: "10", Section: "A"}

	assert.True(t, InScope(e, &Student{ClassName: "10", Section: "A"}, matcher))
	assert.False(t, InScope(e, &Student{ClassName: "11", Section: "A"}, matcher))

	college := &Election{Type: TierCollege}
	assert.True(t, InScope(college, &Student{ClassName: "anything"}, matcher))
}
