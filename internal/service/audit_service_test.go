package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"voteon/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanAuditRepo signals every Record call so tests can wait for the
// background write without sleeping.
type chanAuditRepo struct {
	fail    error
	entries chan *domain.AuditEntry
}

func newChanAuditRepo() *chanAuditRepo {
	return &chanAuditRepo{entries: make(chan *domain.AuditEntry, 8)}
}

func (r *chanAuditRepo) Record(_ context.Context, entry *domain.AuditEntry) error {
	r.entries <- entry
	return r.fail
}

func (r *chanAuditRepo) List(_ context.Context, _ int) ([]*domain.AuditEntry, error) {
	return nil, nil
}

func TestAuditRecordIsAsynchronous(t *testing.T) {
	repo := newChanAuditRepo()
	svc := NewAuditService(repo, testLogger(t))

	svc.Record(context.Background(), ActionVoteCast, auditModuleElections, "vote cast in election e1", "s1", domain.RoleStudent)

	select {
	case entry := <-repo.entries:
		assert.Equal(t, ActionVoteCast, entry.Action)
		assert.Equal(t, auditModuleElections, entry.Module)
		assert.Equal(t, "s1", entry.ActorID)
	case <-time.After(2 * time.Second):
		t.Fatal("audit write never happened")
	}
}

func TestAuditRecordSwallowsFailures(t *testing.T) {
	repo := newChanAuditRepo()
	repo.fail = errors.New("connection refused")
	svc := NewAuditService(repo, testLogger(t))

	// Must not panic or surface the error to the caller.
	svc.Record(context.Background(), ActionElectionEnded, auditModuleElections, "details", "officer-1", domain.RoleAdmin)

	select {
	case <-repo.entries:
	case <-time.After(2 * time.Second):
		t.Fatal("audit write never attempted")
	}
}

func TestAuditList(t *testing.T) {
	repo := newChanAuditRepo()
	svc := NewAuditService(repo, testLogger(t))
	entries, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, entries)
}
