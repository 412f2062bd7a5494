package ports

import (
	"context"
	"courier-backoffice-service/internal/domain"
)

// Port: a boundary for storing and retrieving Order entities.
type OrderRepository interface {
	// Persist a new order, assigning its ID. Returns domain.ErrReferenceNotFound
	// when a party reference does not exist.
	CreateOrder(ctx context.Context, o *domain.Order) error
	// Persist many orders in a single transaction; all or nothing.
	CreateOrders(ctx context.Context, os []*domain.Order) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	// Return orders matching the filter, ordered by ID.
	ListOrders(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, error)
	// Persist the mutable fields of an existing order. The write only
	// applies while the stored status is still from; otherwise it returns
	// domain.ErrInvalidTransition.
	UpdateOrder(ctx context.Context, o *domain.Order, from domain.OrderStatus) error
	DeleteOrder(ctx context.Context, id int64) error
}
