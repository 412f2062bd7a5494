package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a shipment/service record. It always references an existing
// sender client and optionally a recipient client. Party names are
// resolved from the referenced clients when the order is read.
// CreatedAt is the ingestion date and never changes after creation.
type Order struct {
	ID             int64
	SenderID       int64
	SenderName     string
	RecipientID    *int64
	RecipientName  string
	Origin         string
	Destination    string
	CargoDetail    string
	Total          decimal.Decimal
	PaymentMethod  string
	Billed         bool
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	AssignedWorker string
	Notes          string
	CreatedAt      time.Time
}

// References reports whether the order points at client id as either party.
func (o *Order) References(clientID int64) bool {
	if o.SenderID == clientID {
		return true
	}
	return o.RecipientID != nil && *o.RecipientID == clientID
}

// NewOrder holds the caller-supplied fields of an order to be created.
// Empty Status/PaymentStatus default to Pendiente. A zero CreatedAt is
// replaced by the current time; the importer sets it from the source file.
type NewOrder struct {
	SenderID       int64           `validate:"required,gt=0"`
	RecipientID    *int64          `validate:"omitempty,gt=0"`
	Origin         string          `validate:"max=200"`
	Destination    string          `validate:"max=200"`
	CargoDetail    string          `validate:"max=2000"`
	Total          decimal.Decimal `validate:"-"`
	PaymentMethod  string          `validate:"max=50"`
	Billed         bool
	Status         OrderStatus   `validate:"-"`
	PaymentStatus  PaymentStatus `validate:"-"`
	AssignedWorker string        `validate:"max=50"`
	Notes          string        `validate:"max=2000"`
	CreatedAt      time.Time     `validate:"-"`
}

// OrderUpdate is a partial update; nil fields are left untouched.
type OrderUpdate struct {
	Status         *OrderStatus
	PaymentStatus  *PaymentStatus
	Billed         *bool
	PaymentMethod  *string
	AssignedWorker *string
	Notes          *string
}

// IsEmpty reports whether the update changes nothing.
func (u OrderUpdate) IsEmpty() bool {
	return u.Status == nil && u.PaymentStatus == nil && u.Billed == nil &&
		u.PaymentMethod == nil && u.AssignedWorker == nil && u.Notes == nil
}

// StatusOnly reports whether the update touches the delivery status and
// nothing else. Workers holding orders.update_status may apply these.
func (u OrderUpdate) StatusOnly() bool {
	return u.Status != nil && u.PaymentStatus == nil && u.Billed == nil &&
		u.PaymentMethod == nil && u.AssignedWorker == nil && u.Notes == nil
}

// Apply copies the non-nil fields of u onto o.
func (u OrderUpdate) Apply(o *Order) {
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.PaymentStatus != nil {
		o.PaymentStatus = *u.PaymentStatus
	}
	if u.Billed != nil {
		o.Billed = *u.Billed
	}
	if u.PaymentMethod != nil {
		o.PaymentMethod = *u.PaymentMethod
	}
	if u.AssignedWorker != nil {
		o.AssignedWorker = *u.AssignedWorker
	}
	if u.Notes != nil {
		o.Notes = *u.Notes
	}
}

// OrderFilter narrows order listings. Zero values mean "no constraint".
type OrderFilter struct {
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	PaymentMethod  string
	Billed         *bool
	ClientID       int64
	AssignedWorker string
	// Case-insensitive substring of cargo, origin, destination or party names.
	Query string
}

// OrderSummary aggregates the ledger for dashboards.
type OrderSummary struct {
	Total          int
	ByStatus       map[OrderStatus]int
	PendingPayment int
	Revenue        decimal.Decimal
	BilledAmount   decimal.Decimal
}

// Summarize computes an OrderSummary over orders.
func Summarize(orders []*Order) OrderSummary {
	s := OrderSummary{
		ByStatus:     make(map[OrderStatus]int, len(orderStatuses)),
		Revenue:      decimal.Zero,
		BilledAmount: decimal.Zero,
	}
	for _, st := range orderStatuses {
		s.ByStatus[st] = 0
	}

	for _, o := range orders {
		s.Total++
		s.ByStatus[o.Status]++
		if o.PaymentStatus == PaymentPending {
			s.PendingPayment++
		}
		if o.Status != StatusCancelled {
			s.Revenue = s.Revenue.Add(o.Total)
		}
		if o.Billed {
			s.BilledAmount = s.BilledAmount.Add(o.Total)
		}
	}

	return s
}
