package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/ports"
)

// ClientRegistry owns client registration and lookup. Uniqueness of the
// tax id is enforced by the repository.
type ClientRegistry struct {
	Repo ports.ClientRepository
	Now  func() time.Time
}

func NewClientRegistry(repo ports.ClientRepository) *ClientRegistry {
	return &ClientRegistry{Repo: repo, Now: time.Now}
}

func (r *ClientRegistry) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// Create validates in, stamps the registration time and stores the client.
func (r *ClientRegistry) Create(ctx context.Context, in domain.NewClient) (*domain.Client, error) {
	in = trimClient(in)
	if err := validateStruct(in); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	c := &domain.Client{
		TaxID:        in.TaxID,
		BusinessName: in.BusinessName,
		ContactName:  in.ContactName,
		Email:        in.Email,
		Mobile:       in.Mobile,
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		PostalCode:   in.PostalCode,
		RegisteredAt: r.now(),
	}

	if err := r.Repo.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

func (r *ClientRegistry) Get(ctx context.Context, id int64) (*domain.Client, error) {
	return r.Repo.GetClient(ctx, id)
}

func (r *ClientRegistry) GetByTaxID(ctx context.Context, taxID string) (*domain.Client, error) {
	return r.Repo.GetClientByTaxID(ctx, taxID)
}

func (r *ClientRegistry) List(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, error) {
	clients, err := r.Repo.ListClients(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// Delete removes the client together with every order referencing it and
// returns how many orders went with it.
func (r *ClientRegistry) Delete(ctx context.Context, id int64) (int, error) {
	n, err := r.Repo.DeleteClient(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete client: %w", err)
	}
	return n, nil
}

func trimClient(in domain.NewClient) domain.NewClient {
	in.TaxID = strings.TrimSpace(in.TaxID)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	return in
}
