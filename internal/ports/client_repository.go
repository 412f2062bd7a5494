package ports

import (
	"context"
	"courier-backoffice-service/internal/domain"
)

// Port: a boundary for storing and retrieving Client entities.
type ClientRepository interface {
	// Persist a new client, assigning its ID. Returns domain.ErrUniquenessViolation
	// when the tax id is already registered.
	CreateClient(ctx context.Context, c *domain.Client) error
	// Persist many clients in a single transaction; all or nothing.
	CreateClients(ctx context.Context, cs []*domain.Client) error
	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	GetClientByTaxID(ctx context.Context, taxID string) (*domain.Client, error)
	// Return clients matching the filter, ordered by ID.
	ListClients(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, error)
	// Remove a client and every order referencing it. Returns the number of
	// orders removed along with the client.
	DeleteClient(ctx context.Context, id int64) (int, error)
}
