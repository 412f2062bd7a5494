package dto

import (
	"time"

	"courier-backoffice-service/internal/domain"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the body of POST /api/orders. Estado and
// EstadoPago are accepted for compatibility but ignored: new orders always
// start as Pendiente.
type CreateOrderRequest struct {
	SenderID       int64           `json:"remitente_id"`
	RecipientID    *int64          `json:"destinatario_id"`
	Origin         string          `json:"lugar_origen"`
	Destination    string          `json:"lugar_destino"`
	CargoDetail    string          `json:"detalle_carga"`
	Total          decimal.Decimal `json:"importe_total"`
	PaymentMethod  string          `json:"forma_pago"`
	Billed         bool            `json:"facturado"`
	AssignedWorker string          `json:"trabajador_asignado"`
	Notes          string          `json:"notas"`
	Status         string          `json:"estado"`
	PaymentStatus  string          `json:"estado_pago"`
}

func (r CreateOrderRequest) ToDomain() domain.NewOrder {
	return domain.NewOrder{
		SenderID:       r.SenderID,
		RecipientID:    r.RecipientID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		CargoDetail:    r.CargoDetail,
		Total:          r.Total,
		PaymentMethod:  r.PaymentMethod,
		Billed:         r.Billed,
		AssignedWorker: r.AssignedWorker,
		Notes:          r.Notes,
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentPending,
	}
}

// UpdateOrderRequest is the body of PATCH /api/orders/{id}. Absent fields
// are left unchanged.
type UpdateOrderRequest struct {
	Status         *string `json:"estado"`
	PaymentStatus  *string `json:"estado_pago"`
	Billed         *bool   `json:"facturado"`
	PaymentMethod  *string `json:"forma_pago"`
	AssignedWorker *string `json:"trabajador_asignado"`
	Notes          *string `json:"notas"`
}

// ToDomain canonicalizes status spellings. Unknown values pass through so
// the ledger can reject them with a field error.
func (r UpdateOrderRequest) ToDomain() domain.OrderUpdate {
	u := domain.OrderUpdate{
		Billed:         r.Billed,
		PaymentMethod:  r.PaymentMethod,
		AssignedWorker: r.AssignedWorker,
		Notes:          r.Notes,
	}
	if r.Status != nil {
		st, err := domain.ParseOrderStatus(*r.Status)
		if err != nil {
			st = domain.OrderStatus(*r.Status)
		}
		u.Status = &st
	}
	if r.PaymentStatus != nil {
		ps, err := domain.ParsePaymentStatus(*r.PaymentStatus)
		if err != nil {
			ps = domain.PaymentStatus(*r.PaymentStatus)
		}
		u.PaymentStatus = &ps
	}
	return u
}

type OrderResponse struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"remitente_id"`
	SenderName     string    `json:"remitente_razon"`
	RecipientID    *int64    `json:"destinatario_id"`
	RecipientName  string    `json:"destinatario_razon,omitempty"`
	Origin         string    `json:"lugar_origen"`
	Destination    string    `json:"lugar_destino"`
	CargoDetail    string    `json:"detalle_carga"`
	Total          *string   `json:"importe_total,omitempty"`
	PaymentMethod  string    `json:"forma_pago"`
	Billed         bool      `json:"facturado"`
	Status         string    `json:"estado"`
	PaymentStatus  string    `json:"estado_pago"`
	AssignedWorker string    `json:"trabajador_asignado"`
	Notes          string    `json:"notas"`
	CreatedAt      time.Time `json:"fecha_creacion"`
}

// NewOrderResponse renders o. The amount is omitted when showAmount is false.
func NewOrderResponse(o *domain.Order, showAmount bool) OrderResponse {
	res := OrderResponse{
		ID:             o.ID,
		SenderID:       o.SenderID,
		SenderName:     o.SenderName,
		RecipientID:    o.RecipientID,
		RecipientName:  o.RecipientName,
		Origin:         o.Origin,
		Destination:    o.Destination,
		CargoDetail:    o.CargoDetail,
		PaymentMethod:  o.PaymentMethod,
		Billed:         o.Billed,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		AssignedWorker: o.AssignedWorker,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
	}
	if showAmount {
		total := o.Total.StringFixed(2)
		res.Total = &total
	}
	return res
}

func NewOrderList(os []*domain.Order, showAmount bool) []OrderResponse {
	out := make([]OrderResponse, 0, len(os))
	for _, o := range os {
		out = append(out, NewOrderResponse(o, showAmount))
	}
	return out
}

type SummaryResponse struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"por_estado"`
	PendingPayment int            `json:"pagos_pendientes"`
	Revenue        string         `json:"ingresos,omitempty"`
	BilledAmount   string         `json:"monto_facturado,omitempty"`
}

func NewSummaryResponse(s domain.OrderSummary, showAmount bool) SummaryResponse {
	res := SummaryResponse{
		Total:          s.Total,
		ByStatus:       make(map[string]int, len(s.ByStatus)),
		PendingPayment: s.PendingPayment,
	}
	for st, n := range s.ByStatus {
		res.ByStatus[string(st)] = n
	}
	if showAmount {
		res.Revenue = s.Revenue.StringFixed(2)
		res.BilledAmount = s.BilledAmount.StringFixed(2)
	}
	return res
}
