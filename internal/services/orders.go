package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/ports"
)

// OrderLedger owns the order lifecycle: creation with defaults and
// reference checks, filtered listing and status/payment updates.
type OrderLedger struct {
	Orders  ports.OrderRepository
	Clients ports.ClientRepository
	Now     func() time.Time
}

func NewOrderLedger(orders ports.OrderRepository, clients ports.ClientRepository) *OrderLedger {
	return &OrderLedger{Orders: orders, Clients: clients, Now: time.Now}
}

func (l *OrderLedger) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

// Create validates in, applies defaults and stores the order.
// Unset Status and PaymentStatus default to Pendiente.
func (l *OrderLedger) Create(ctx context.Context, in domain.NewOrder) (*domain.Order, error) {
	in = trimOrder(in)
	if err := validateStruct(in); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if in.Total.IsNegative() {
		return nil, fmt.Errorf("create order: %w", domain.NewValidationError("importe_total", "must not be negative"))
	}

	status := domain.StatusPending
	if in.Status != "" {
		st, err := domain.ParseOrderStatus(string(in.Status))
		if err != nil {
			return nil, fmt.Errorf("create order: %w", domain.NewValidationError("estado", err.Error()))
		}
		status = st
	}

	payment := domain.PaymentPending
	if in.PaymentStatus != "" {
		ps, err := domain.ParsePaymentStatus(string(in.PaymentStatus))
		if err != nil {
			return nil, fmt.Errorf("create order: %w", domain.NewValidationError("estado_pago", err.Error()))
		}
		payment = ps
	}

	if err := l.checkClient(ctx, "remitente_id", in.SenderID); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if in.RecipientID != nil {
		if err := l.checkClient(ctx, "destinatario_id", *in.RecipientID); err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
	}

	created := in.CreatedAt
	if created.IsZero() {
		created = l.now()
	}

	o := &domain.Order{
		SenderID:       in.SenderID,
		RecipientID:    in.RecipientID,
		Origin:         in.Origin,
		Destination:    in.Destination,
		CargoDetail:    in.CargoDetail,
		Total:          in.Total.Round(2),
		PaymentMethod:  in.PaymentMethod,
		Billed:         in.Billed,
		Status:         status,
		PaymentStatus:  payment,
		AssignedWorker: in.AssignedWorker,
		Notes:          in.Notes,
		CreatedAt:      created.UTC(),
	}

	if err := l.Orders.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	stored, err := l.Orders.GetOrder(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("create order: reload id=%d: %w", o.ID, err)
	}
	return stored, nil
}

func (l *OrderLedger) checkClient(ctx context.Context, field string, id int64) error {
	_, err := l.Clients.GetClient(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s=%d: %w", field, id, domain.ErrReferenceNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s=%d: %w", field, id, err)
	}
	return nil
}

func (l *OrderLedger) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return l.Orders.GetOrder(ctx, id)
}

func (l *OrderLedger) List(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, error) {
	orders, err := l.Orders.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Update applies a partial update. Status changes must follow the
// lifecycle graph; party references and the creation date never change.
func (l *OrderLedger) Update(ctx context.Context, id int64, u domain.OrderUpdate) (*domain.Order, error) {
	if u.IsEmpty() {
		return nil, fmt.Errorf("update order id=%d: %w", id, domain.NewValidationError("body", "no fields to update"))
	}
	u, err := normalizeUpdate(u)
	if err != nil {
		return nil, fmt.Errorf("update order id=%d: %w", id, err)
	}

	o, err := l.Orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if u.Status != nil && !o.Status.CanTransitionTo(*u.Status) {
		return nil, fmt.Errorf("update order id=%d: %q -> %q: %w", id, o.Status, *u.Status, domain.ErrInvalidTransition)
	}

	from := o.Status
	u.Apply(o)
	if err := l.Orders.UpdateOrder(ctx, o, from); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// normalizeUpdate validates u and replaces status spellings with their
// canonical values.
func normalizeUpdate(u domain.OrderUpdate) (domain.OrderUpdate, error) {
	ve := &domain.ValidationError{}

	if u.Status != nil {
		st, err := domain.ParseOrderStatus(string(*u.Status))
		if err != nil {
			ve.Add("estado", err.Error())
		} else {
			u.Status = &st
		}
	}
	if u.PaymentStatus != nil {
		ps, err := domain.ParsePaymentStatus(string(*u.PaymentStatus))
		if err != nil {
			ve.Add("estado_pago", err.Error())
		} else {
			u.PaymentStatus = &ps
		}
	}
	if u.PaymentMethod != nil && len(*u.PaymentMethod) > 50 {
		ve.Add("forma_pago", "must be at most 50 characters")
	}
	if u.AssignedWorker != nil && len(*u.AssignedWorker) > 50 {
		ve.Add("trabajador_asignado", "must be at most 50 characters")
	}
	if u.Notes != nil && len(*u.Notes) > 2000 {
		ve.Add("notas", "must be at most 2000 characters")
	}

	if len(ve.Fields) > 0 {
		return u, ve
	}
	return u, nil
}

func (l *OrderLedger) Delete(ctx context.Context, id int64) error {
	if err := l.Orders.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// Summary aggregates the orders matching f.
func (l *OrderLedger) Summary(ctx context.Context, f domain.OrderFilter) (domain.OrderSummary, error) {
	orders, err := l.List(ctx, f)
	if err != nil {
		return domain.OrderSummary{}, fmt.Errorf("order summary: %w", err)
	}
	return domain.Summarize(orders), nil
}

func trimOrder(in domain.NewOrder) domain.NewOrder {
	in.Origin = strings.TrimSpace(in.Origin)
	in.Destination = strings.TrimSpace(in.Destination)
	in.CargoDetail = strings.TrimSpace(in.CargoDetail)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	in.AssignedWorker = strings.TrimSpace(in.AssignedWorker)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}
