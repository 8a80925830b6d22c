package service

import (
	"context"
	"time"

	"voteon/internal/domain"
	"voteon/internal/repository"
	"voteon/pkg/logger"

	"go.uber.org/zap"
)

// AuditService records audit entries without blocking or failing the
// calling path. Writes happen on a background goroutine with their own
// timeout; failures are logged and dropped.
type AuditService struct {
	repo    repository.AuditRepository
	logger  *logger.Logger
	timeout time.Duration
}

func NewAuditService(repo repository.AuditRepository, log *logger.Logger) *AuditService {
	return &AuditService{
		repo:    repo,
		logger:  log,
		timeout: 5 * time.Second,
	}
}

func (s *AuditService) Record(ctx context.Context, action, module, details, actorID, actorRole string) {
	entry := &domain.AuditEntry{
		Action:    action,
		Module:    module,
		Details:   details,
		ActorID:   actorID,
		ActorRole: actorRole,
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.repo.Record(writeCtx, entry); err != nil {
			s.logger.Warn("failed to record audit entry",
				zap.String("action", action),
				zap.String("module", module),
				zap.String("actor_id", actorID),
				zap.Error(err))
		}
	}()
}

// List returns recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	return s.repo.List(ctx, limit)
}
