package service

import (
	"context"
	"testing"
	"time"

	"voteon/internal/domain"
	redispkg "voteon/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redispkg.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client, testLogger(t)), mr
}

func TestCacheElectionRoundtrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	assert.Nil(t, cache.GetElection(ctx, "e1"))

	e := &domain.Election{
		ID: "e1", Title: "Class Representative 10A",
		Type: domain.TierClass, Status: domain.StatusActive,
		Candidates: []domain.CandidateEntry{{StudentID: "s1", VotesCount: 3}},
		TotalVotes: 3,
	}
	cache.SetElection(ctx, e)

	got := cache.GetElection(ctx, "e1")
	require.NotNil(t, got)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, 3, got.TotalVotes)

	cache.InvalidateElection(ctx, "e1")
	assert.Nil(t, cache.GetElection(ctx, "e1"))
}

func TestCacheVoteLock(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	assert.True(t, cache.TryVoteLock(ctx, "e1", "s1"))
	assert.False(t, cache.TryVoteLock(ctx, "e1", "s1"), "second acquisition must fail")
	assert.True(t, cache.TryVoteLock(ctx, "e1", "s2"), "other voters are unaffected")

	mr.FastForward(redispkg.TTLVoteLock + time.Second)
	assert.True(t, cache.TryVoteLock(ctx, "e1", "s1"), "lock expires")

	cache.ReleaseVoteLock(ctx, "e1", "s2")
	assert.True(t, cache.TryVoteLock(ctx, "e1", "s2"))
}

func TestCacheVoterStatus(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	assert.False(t, cache.HasVoted(ctx, "e1", "s1"))
	cache.MarkVoted(ctx, "e1", "s1")
	assert.True(t, cache.HasVoted(ctx, "e1", "s1"))
	assert.False(t, cache.HasVoted(ctx, "e1", "s2"))
}

func TestCacheDisabledIsSafe(t *testing.T) {
	cache := NewCacheService(nil, testLogger(t))
	ctx := context.Background()

	assert.Nil(t, cache.GetElection(ctx, "e1"))
	cache.SetElection(ctx, &domain.Election{ID: "e1"})
	assert.True(t, cache.TryVoteLock(ctx, "e1", "s1"), "locks fall open without Redis")
	cache.MarkVoted(ctx, "e1", "s1")
	assert.False(t, cache.HasVoted(ctx, "e1", "s1"))
	cache.InvalidateElection(ctx, "e1")
	assert.Nil(t, cache.GetClassWinners(ctx))
}

func TestCacheResultsRoundtrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	r := &ElectionResults{
		ElectionID: "e1", TotalVotes: 4,
		Candidates: []CandidateResult{{StudentID: "s1", VotesCount: 3, Percentage: 75, Rank: 1}},
	}
	cache.SetResults(ctx, "e1", r)

	got := cache.GetResults(ctx, "e1")
	require.NotNil(t, got)
	assert.Equal(t, 4, got.TotalVotes)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, 1, got.Candidates[0].Rank)
}
