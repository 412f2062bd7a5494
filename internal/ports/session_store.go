package ports

import (
	"context"
	"courier-backoffice-service/internal/domain"
	"time"
)

// Contract for keeping issued sessions until they expire.
type SessionStore interface {
	Save(ctx context.Context, s domain.Session, ttl time.Duration) error
	// Return the session for token, or domain.ErrUnauthorized when it is
	// unknown or expired.
	Get(ctx context.Context, token string) (domain.Session, error)
	Delete(ctx context.Context, token string) error
}
