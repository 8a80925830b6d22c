package auth

import (
	"context"
	"fmt"
	"time"

	"voteon/internal/domain"
	"voteon/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Service resolves bearer tokens to identities and issues tokens on login.
type Service struct {
	secret []byte
	ttl    time.Duration
	logger *logger.Logger
}

// NewService creates a new auth service. ttl of 0 selects 24h.
func NewService(secret string, ttl time.Duration, log *logger.Logger) *Service {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl, logger: log}
}

type claims struct {
	Role      string `json:"role"`
	ClassName string `json:"class_name,omitempty"`
	Section   string `json:"section,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a token carrying the identity and its scope attributes.
func (s *Service) IssueToken(identity domain.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:      identity.Role,
		ClassName: identity.ClassName,
		Section:   identity.Section,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ResolveToken validates the token signature and expiry and returns the
// embedded identity.
func (s *Service) ResolveToken(_ context.Context, tokenString string) (*domain.Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return &domain.Identity{
		ID:        c.Subject,
		Role:      c.Role,
		ClassName: c.ClassName,
		Section:   c.Section,
	}, nil
}
