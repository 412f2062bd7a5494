package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"courier-backoffice-service/internal/domain"
)

const dateParam = "2006-01-02"

// parseClientFilter reads q, ciudad, desde and hasta. Both dates are whole
// days; hasta is inclusive.
func parseClientFilter(v url.Values) (domain.ClientFilter, error) {
	f := domain.ClientFilter{
		Query: strings.TrimSpace(v.Get("q")),
		City:  strings.TrimSpace(v.Get("ciudad")),
	}
	ve := &domain.ValidationError{}

	if s := strings.TrimSpace(v.Get("desde")); s != "" {
		t, err := time.Parse(dateParam, s)
		if err != nil {
			ve.Add("desde", "must be a date in YYYY-MM-DD format")
		} else {
			f.RegisteredFrom = &t
		}
	}
	if s := strings.TrimSpace(v.Get("hasta")); s != "" {
		t, err := time.Parse(dateParam, s)
		if err != nil {
			ve.Add("hasta", "must be a date in YYYY-MM-DD format")
		} else {
			end := t.AddDate(0, 0, 1)
			f.RegisteredTo = &end
		}
	}

	if len(ve.Fields) > 0 {
		return domain.ClientFilter{}, ve
	}
	return f, nil
}

func parseOrderFilter(v url.Values) (domain.OrderFilter, error) {
	f := domain.OrderFilter{
		PaymentMethod: strings.TrimSpace(v.Get("forma_pago")),
		Query:         strings.TrimSpace(v.Get("q")),
	}
	ve := &domain.ValidationError{}

	if s := strings.TrimSpace(v.Get("estado")); s != "" {
		st, err := domain.ParseOrderStatus(s)
		if err != nil {
			ve.Add("estado", err.Error())
		}
		f.Status = st
	}
	if s := strings.TrimSpace(v.Get("estado_pago")); s != "" {
		ps, err := domain.ParsePaymentStatus(s)
		if err != nil {
			ve.Add("estado_pago", err.Error())
		}
		f.PaymentStatus = ps
	}
	if s := strings.TrimSpace(v.Get("facturado")); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			ve.Add("facturado", "must be true or false")
		} else {
			f.Billed = &b
		}
	}
	if s := strings.TrimSpace(v.Get("cliente_id")); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			ve.Add("cliente_id", "must be a positive integer")
		}
		f.ClientID = id
	}

	if len(ve.Fields) > 0 {
		return domain.OrderFilter{}, ve
	}
	return f, nil
}

// scopeOrders limits a worker without orders.view_all to their own orders.
func scopeOrders(f domain.OrderFilter, s domain.Session, ok bool) domain.OrderFilter {
	if ok && s.Role != domain.RoleAdmin && !s.HasPermission(domain.PermOrdersViewAll) {
		f.AssignedWorker = s.Username
	}
	return f
}
