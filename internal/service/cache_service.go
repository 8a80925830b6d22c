package service

import (
	"context"
	"encoding/json"

	"voteon/internal/domain"
	"voteon/pkg/logger"
	"voteon/pkg/redis"

	"go.uber.org/zap"
)

// CacheService wraps Redis access for the election read paths. Every
// method tolerates a nil Redis client and swallows cache errors so the
// database remains the source of truth.
type CacheService struct {
	redis  *redis.Client
	logger *logger.Logger
}

func NewCacheService(redisClient *redis.Client, log *logger.Logger) *CacheService {
	return &CacheService{redis: redisClient, logger: log}
}

func (s *CacheService) Enabled() bool {
	return s != nil && s.redis != nil
}

// GetElection returns the cached election document, or nil on miss.
func (s *CacheService) GetElection(ctx context.Context, electionID string) *domain.Election {
	if !s.Enabled() {
		return nil
	}
	raw, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyElection(electionID))
	if err != nil || raw == "" {
		return nil
	}
	var e domain.Election
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		s.logger.Warn("corrupt election cache entry", zap.String("election_id", electionID), zap.Error(err))
		return nil
	}
	return &e
}

func (s *CacheService) SetElection(ctx context.Context, e *domain.Election) {
	if !s.Enabled() || e == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, s.redis.KeyBuilder.KeyElection(e.ID), data, redis.TTLElection)
}

// GetResults returns the cached ranked results payload, or nil on miss.
func (s *CacheService) GetResults(ctx context.Context, electionID string) *ElectionResults {
	if !s.Enabled() {
		return nil
	}
	raw, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyElectionResults(electionID))
	if err != nil || raw == "" {
		return nil
	}
	var r ElectionResults
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil
	}
	return &r
}

func (s *CacheService) SetResults(ctx context.Context, electionID string, r *ElectionResults) {
	if !s.Enabled() || r == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, s.redis.KeyBuilder.KeyElectionResults(electionID), data, redis.TTLResults)
}

// MarkVoted records voter ledger membership so repeat attempts can be
// rejected without touching Postgres.
func (s *CacheService) MarkVoted(ctx context.Context, electionID, studentID string) {
	if !s.Enabled() {
		return
	}
	_ = s.redis.Set(ctx, s.redis.KeyBuilder.KeyVoterStatus(electionID, studentID), "1", redis.TTLVoterStatus)
}

// HasVoted reports a cached voter ledger hit. A false return means
// "unknown", not "has not voted".
func (s *CacheService) HasVoted(ctx context.Context, electionID, studentID string) bool {
	if !s.Enabled() {
		return false
	}
	n, err := s.redis.Exists(ctx, s.redis.KeyBuilder.KeyVoterStatus(electionID, studentID))
	return err == nil && n > 0
}

// TryVoteLock acquires the short-lived double-submit guard for a
// voter/election pair. Returns true when Redis is unavailable so the
// database conflict check remains the final authority.
func (s *CacheService) TryVoteLock(ctx context.Context, electionID, studentID string) bool {
	if !s.Enabled() {
		return true
	}
	ok, err := s.redis.SetNX(ctx, s.redis.KeyBuilder.KeyVoteLock(electionID, studentID), "1", redis.TTLVoteLock)
	if err != nil {
		return true
	}
	return ok
}

func (s *CacheService) ReleaseVoteLock(ctx context.Context, electionID, studentID string) {
	if !s.Enabled() {
		return
	}
	_ = s.redis.Delete(ctx, s.redis.KeyBuilder.KeyVoteLock(electionID, studentID))
}

// InvalidateElection drops the election document and results caches
// after any write to the aggregate.
func (s *CacheService) InvalidateElection(ctx context.Context, electionID string) {
	if !s.Enabled() {
		return
	}
	_ = s.redis.Delete(ctx,
		s.redis.KeyBuilder.KeyElection(electionID),
		s.redis.KeyBuilder.KeyElectionResults(electionID),
	)
}

// GetClassWinners returns the cached class winner roster, or nil on miss.
func (s *CacheService) GetClassWinners(ctx context.Context) []domain.Student {
	if !s.Enabled() {
		return nil
	}
	raw, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyClassWinners())
	if err != nil || raw == "" {
		return nil
	}
	var winners []domain.Student
	if err := json.Unmarshal([]byte(raw), &winners); err != nil {
		return nil
	}
	return winners
}

func (s *CacheService) SetClassWinners(ctx context.Context, winners []domain.Student) {
	if !s.Enabled() {
		return
	}
	data, err := json.Marshal(winners)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, s.redis.KeyBuilder.KeyClassWinners(), data, redis.TTLClassWinners)
}

func (s *CacheService) InvalidateClassWinners(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	_ = s.redis.Delete(ctx, s.redis.KeyBuilder.KeyClassWinners())
}
