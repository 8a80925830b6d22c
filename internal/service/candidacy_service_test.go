package service

import (
	"context"
	"testing"

	"voteon/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCandidacyFixture(t *testing.T) (*CandidacyService, *memStudentRepo, *recordingAudit) {
	students := newMemStudentRepo()
	audit := &recordingAudit{}
	return NewCandidacyService(students, audit, testLogger(t)), students, audit
}

func seedStudent(t *testing.T, repo *memStudentRepo, s *domain.Student) *domain.Student {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestNominate(t *testing.T) {
	svc, students, audit := newCandidacyFixture(t)
	ctx := context.Background()

	s := seedStudent(t, students, &domain.Student{
		ID: "s1", Name: "Asha", ClassName: "10", Section: "A",
		AttendancePercent: 82, IsVerified: true,
	})

	nominated, err := svc.Nominate(ctx, s.ID, NominationInput{
		Position:        "Class Representative",
		Manifesto:       "Better library hours",
		ManifestoPoints: []string{"extend library hours", "monthly feedback box"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateNominated, nominated.CandidacyStage())
	assert.Equal(t, "Class Representative", nominated.Position)
	assert.Contains(t, audit.actions(), ActionNominationSubmitted)

	t.Run("double nomination rejected", func(t *testing.T) {
		_, err := svc.Nominate(ctx, s.ID, NominationInput{Position: "Sports Captain"})
		assert.ErrorIs(t, err, domain.ErrAlreadyCandidate)
	})

	t.Run("attendance floor enforced", func(t *testing.T) {
		low := seedStudent(t, students, &domain.Student{ID: "s2", AttendancePercent: 74.9})
		_, err := svc.Nominate(ctx, low.ID, NominationInput{Position: "Class Representative"})
		assert.ErrorIs(t, err, domain.ErrAttendanceTooLow)
	})

	t.Run("boundary attendance allowed", func(t *testing.T) {
		edge := seedStudent(t, students, &domain.Student{ID: "s3", AttendancePercent: 75})
		_, err := svc.Nominate(ctx, edge.ID, NominationInput{Position: "Sports Captain"})
		assert.NoError(t, err)
	})

	t.Run("position required", func(t *testing.T) {
		_, err := svc.Nominate(ctx, s.ID, NominationInput{})
		require.Error(t, err)
	})
}

func TestCandidacyTransitions(t *testing.T) {
	svc, students, _ := newCandidacyFixture(t)
	ctx := context.Background()
	teacher := domain.Identity{ID: "t1", Role: domain.RoleTeacher}

	s := seedStudent(t, students, &domain.Student{
		ID: "s1", AttendancePercent: 90,
		IsCandidate: true, Position: "Class Representative", Manifesto: "m",
	})

	t.Run("approve from nominated", func(t *testing.T) {
		approved, err := svc.Approve(ctx, teacher, s.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateApproved, approved.CandidacyStage())
	})

	t.Run("approve is not re-entrant", func(t *testing.T) {
		_, err := svc.Approve(ctx, teacher, s.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("revoke returns to nominated, material intact", func(t *testing.T) {
		revoked, err := svc.Revoke(ctx, teacher, s.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateNominated, revoked.CandidacyStage())
		assert.Equal(t, "m", revoked.Manifesto)
	})

	t.Run("revoke needs approval to revoke", func(t *testing.T) {
		_, err := svc.Revoke(ctx, teacher, s.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("reject clears all campaign material", func(t *testing.T) {
		rejected, err := svc.Reject(ctx, teacher, s.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateNotCandidate, rejected.CandidacyStage())
		assert.Empty(t, rejected.Position)
		assert.Empty(t, rejected.Manifesto)
		assert.Zero(t, rejected.VotesReceived)
	})

	t.Run("reject requires a candidacy", func(t *testing.T) {
		_, err := svc.Reject(ctx, teacher, s.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("students cannot approve", func(t *testing.T) {
		_, err := svc.Approve(ctx, domain.Identity{ID: "x", Role: domain.RoleStudent}, s.ID)
		require.Error(t, err)
	})
}

func TestPendingCandidates(t *testing.T) {
	svc, students, _ := newCandidacyFixture(t)
	ctx := context.Background()

	seedStudent(t, students, &domain.Student{ID: "p1", IsCandidate: true})
	seedStudent(t, students, &domain.Student{ID: "p2", IsCandidate: true, IsApproved: true})
	seedStudent(t, students, &domain.Student{ID: "p3"})

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p1", pending[0].ID)
}
