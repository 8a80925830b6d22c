package service

import (
	"context"
	"testing"
	"time"

	"voteon/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promotionFixture struct {
	svc       *PromotionService
	elections *memElectionRepo
	students  *memStudentRepo
	audit     *recordingAudit
	officer   domain.Identity
}

func newPromotionFixture(t *testing.T) *promotionFixture {
	f := &promotionFixture{
		elections: newMemElectionRepo(),
		students:  newMemStudentRepo(),
		audit:     &recordingAudit{},
		officer:   domain.Identity{ID: "officer-1", Role: domain.RoleAdmin},
	}
	f.svc = NewPromotionService(
		f.students, f.elections,
		NewCacheService(nil, testLogger(t)),
		f.audit,
		domain.NewClassMatcher(domain.MatchExact),
		testLogger(t),
	)
	return f
}

func TestPromoteClassWinnersIdempotent(t *testing.T) {
	f := newPromotionFixture(t)
	ctx := context.Background()

	seedStudent(t, f.students, &domain.Student{ID: "w1", HasWon: true, WonTier: domain.TierClass})
	seedStudent(t, f.students, &domain.Student{ID: "w2", HasWon: true, WonTier: domain.TierClass})
	seedStudent(t, f.students, &domain.Student{ID: "already", HasWon: true, IsCollegeCandidate: true})
	seedStudent(t, f.students, &domain.Student{ID: "loser"})

	promoted, err := f.svc.PromoteClassWinners(ctx, f.officer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), promoted)

	for _, id := range []string{"w1", "w2"} {
		s, err := f.students.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, s.IsCollegeCandidate)
	}
	s, err := f.students.GetByID(ctx, "loser")
	require.NoError(t, err)
	assert.False(t, s.IsCollegeCandidate)

	t.Run("second run promotes nobody", func(t *testing.T) {
		promoted, err := f.svc.PromoteClassWinners(ctx, f.officer)
		require.NoError(t, err)
		assert.Zero(t, promoted)
	})

	t.Run("students cannot promote", func(t *testing.T) {
		_, err := f.svc.PromoteClassWinners(ctx, domain.Identity{ID: "s1", Role: domain.RoleStudent})
		require.Error(t, err)
	})
}

func TestAddWinnerToCollegeElection(t *testing.T) {
	f := newPromotionFixture(t)
	ctx := context.Background()

	winner := seedStudent(t, f.students, &domain.Student{
		ID: "w1", HasWon: true, WonTier: domain.TierClass, AttendancePercent: 90,
	})
	loser := seedStudent(t, f.students, &domain.Student{ID: "l1", AttendancePercent: 90})

	college := &domain.Election{
		Title: "College President", Type: domain.TierCollege, Position: "President",
		Status:    domain.StatusDraft,
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	}
	require.NoError(t, f.elections.Create(ctx, college))

	e, err := f.svc.AddWinnerToCollegeElection(ctx, f.officer, college.ID, winner.ID)
	require.NoError(t, err)
	require.NotNil(t, e.Candidate(winner.ID))

	s, err := f.students.GetByID(ctx, winner.ID)
	require.NoError(t, err)
	assert.True(t, s.IsCollegeCandidate)
	assert.Contains(t, f.audit.actions(), ActionWinnerAddedToElection)

	t.Run("non-winners rejected", func(t *testing.T) {
		_, err := f.svc.AddWinnerToCollegeElection(ctx, f.officer, college.ID, loser.ID)
		assert.ErrorIs(t, err, domain.ErrNotWinner)
	})

	t.Run("duplicate enrollment rejected", func(t *testing.T) {
		_, err := f.svc.AddWinnerToCollegeElection(ctx, f.officer, college.ID, winner.ID)
		assert.ErrorIs(t, err, domain.ErrDuplicateCandidate)
	})

	t.Run("class elections rejected", func(t *testing.T) {
		classEl := &domain.Election{
			Title: "Class Rep", Type: domain.TierClass, Position: "Class Representative",
			ClassName: "10", Section: "A", Status: domain.StatusDraft,
		}
		require.NoError(t, f.elections.Create(ctx, classEl))
		_, err := f.svc.AddWinnerToCollegeElection(ctx, f.officer, classEl.ID, winner.ID)
		require.Error(t, err)
	})

	t.Run("position conflict across college elections", func(t *testing.T) {
		second := &domain.Election{
			Title: "College President Rerun", Type: domain.TierCollege, Position: "President",
			Status: domain.StatusDraft,
		}
		require.NoError(t, f.elections.Create(ctx, second))
		_, err := f.svc.AddWinnerToCollegeElection(ctx, f.officer, second.ID, winner.ID)
		assert.ErrorIs(t, err, domain.ErrPositionConflict)
	})
}

func TestClassWinners(t *testing.T) {
	f := newPromotionFixture(t)
	ctx := context.Background()

	seedStudent(t, f.students, &domain.Student{ID: "w1", HasWon: true})
	seedStudent(t, f.students, &domain.Student{ID: "plain"})

	winners, err := f.svc.ClassWinners(ctx)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "w1", winners[0].ID)
}
