package ports

import (
	"context"
	"courier-backoffice-service/internal/domain"
)

// Contract for verifying back-office credentials.
type CredentialStore interface {
	// Return the principal for username when secret matches, or
	// domain.ErrUnauthorized otherwise.
	Verify(ctx context.Context, username, secret string) (domain.Principal, error)
}
