package service

import (
	"context"

	"voteon/internal/domain"
)

// AuthService is the identity/session collaborator: it turns an opaque
// bearer credential into a resolved identity and issues credentials after
// login. The core trusts the resolved identity as given.
type AuthService interface {
	IssueToken(identity domain.Identity) (string, error)
	ResolveToken(ctx context.Context, token string) (*domain.Identity, error)
}

// Notifier is the notification collaborator. SendOTP failure during
// registration triggers compensating deletion of the just-created record.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}

// AuditRecorder records privileged actions best-effort. Implementations must
// never block or fail the caller's primary operation.
type AuditRecorder interface {
	Record(ctx context.Context, action, module, details, actorID, actorRole string)
}
