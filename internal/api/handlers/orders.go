package handlers

import (
	"net/http"

	"courier-backoffice-service/internal/api/dto"
	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/services"
)

// OrderHandler exposes the order ledger over JSON.
type OrderHandler struct {
	Orders *services.OrderLedger
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseOrderFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, "list orders", err)
		return
	}
	s, ok := SessionFrom(r.Context())
	f = scopeOrders(f, s, ok)

	orders, err := h.Orders.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, "list orders", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewOrderList(orders, showAmounts(r)))
}

// Create always starts the order as Pendiente, whatever the body says.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if s, ok := SessionFrom(r.Context()); ok && !s.HasPermission(domain.PermOrdersCreate) {
		writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}

	var req dto.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.Orders.Create(r.Context(), req.ToDomain())
	if err != nil {
		writeServiceError(w, r, "create order", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.NewOrderResponse(o, showAmounts(r)))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get order", err)
		return
	}
	if s, ok := SessionFrom(r.Context()); ok && !s.CanSeeOrder(o) {
		writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewOrderResponse(o, showAmounts(r)))
}

// Update applies a partial change. A status-only change is allowed with
// orders.update_status; anything else needs orders.edit, and reassigning
// the worker also needs orders.assign_worker.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := requirePermission(w, r, domain.PermOrdersEdit, domain.PermOrdersUpdateStatus)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u := req.ToDomain()

	if !u.IsEmpty() {
		if !u.StatusOnly() && !s.HasPermission(domain.PermOrdersEdit) {
			writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}
		if u.AssignedWorker != nil && !s.HasPermission(domain.PermOrdersAssignWorker) {
			writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}
	}

	current, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "update order", err)
		return
	}
	if !s.CanSeeOrder(current) {
		writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}

	o, err := h.Orders.Update(r.Context(), id, u)
	if err != nil {
		writeServiceError(w, r, "update order", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewOrderResponse(o, showAmounts(r)))
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePermission(w, r, domain.PermOrdersDelete); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Orders.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	f, err := parseOrderFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, "order summary", err)
		return
	}
	s, ok := SessionFrom(r.Context())
	f = scopeOrders(f, s, ok)

	sum, err := h.Orders.Summary(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, "order summary", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewSummaryResponse(sum, showAmounts(r)))
}
