package domain

import (
	"fmt"

	"courier-backoffice-service/internal/platform/textfold"
)

// OrderStatus is the lifecycle state of a service order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pendiente"
	StatusInTransit OrderStatus = "En Tránsito"
	StatusCompleted OrderStatus = "Completada"
	StatusCancelled OrderStatus = "Cancelada"
)

var orderStatuses = []OrderStatus{StatusPending, StatusInTransit, StatusCompleted, StatusCancelled}

// Allowed forward moves. Completed and Cancelled are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusCompleted, StatusCancelled},
}

// OrderStatuses returns every known order status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

// ParseOrderStatus matches s against the known statuses ignoring case and accents.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range orderStatuses {
		if textfold.Equal(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransitionTo reports whether an order in status s may move to next.
// Staying in the same status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// PaymentStatus tracks whether the order has been paid, independently of
// its delivery status.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pendiente"
	PaymentPaid    PaymentStatus = "Pagado"
	PaymentOverdue PaymentStatus = "Vencido"
)

var paymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentOverdue}

func PaymentStatuses() []PaymentStatus {
	out := make([]PaymentStatus, len(paymentStatuses))
	copy(out, paymentStatuses)
	return out
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for _, st := range paymentStatuses {
		if textfold.Equal(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}
