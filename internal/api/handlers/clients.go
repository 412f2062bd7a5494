package handlers

import (
	"net/http"

	"courier-backoffice-service/internal/api/dto"
	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/services"
)

// ClientHandler exposes the client registry over JSON.
type ClientHandler struct {
	Clients *services.ClientRegistry
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseClientFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, "list clients", err)
		return
	}

	clients, err := h.Clients.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, "list clients", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewClientList(clients))
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.Clients.Create(r.Context(), req.ToDomain())
	if err != nil {
		writeServiceError(w, r, "create client", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.NewClientResponse(c))
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.Clients.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get client", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewClientResponse(c))
}

// Delete removes the client and, with it, every order it takes part in.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePermission(w, r, domain.PermOrdersDelete); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	n, err := h.Clients.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "delete client", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DeleteClientResponse{DeletedOrders: n})
}
