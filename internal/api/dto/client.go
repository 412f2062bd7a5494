package dto

import (
	"time"

	"courier-backoffice-service/internal/domain"
)

type CreateClientRequest struct {
	TaxID        string `json:"ruc_dni"`
	BusinessName string `json:"razon_social"`
	ContactName  string `json:"nombre_contacto"`
	Email        string `json:"email"`
	Mobile       string `json:"celular"`
	Phone        string `json:"telefono_fijo"`
	Address      string `json:"direccion"`
	City         string `json:"ciudad"`
	PostalCode   string `json:"codigo_postal"`
}

func (r CreateClientRequest) ToDomain() domain.NewClient {
	return domain.NewClient{
		TaxID:        r.TaxID,
		BusinessName: r.BusinessName,
		ContactName:  r.ContactName,
		Email:        r.Email,
		Mobile:       r.Mobile,
		Phone:        r.Phone,
		Address:      r.Address,
		City:         r.City,
		PostalCode:   r.PostalCode,
	}
}

type ClientResponse struct {
	ID           int64     `json:"id"`
	TaxID        string    `json:"ruc_dni"`
	BusinessName string    `json:"razon_social"`
	ContactName  string    `json:"nombre_contacto"`
	Email        string    `json:"email"`
	Mobile       string    `json:"celular"`
	Phone        string    `json:"telefono_fijo"`
	Address      string    `json:"direccion"`
	City         string    `json:"ciudad"`
	PostalCode   string    `json:"codigo_postal"`
	RegisteredAt time.Time `json:"fecha_registro"`
}

func NewClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:           c.ID,
		TaxID:        c.TaxID,
		BusinessName: c.BusinessName,
		ContactName:  c.ContactName,
		Email:        c.Email,
		Mobile:       c.Mobile,
		Phone:        c.Phone,
		Address:      c.Address,
		City:         c.City,
		PostalCode:   c.PostalCode,
		RegisteredAt: c.RegisteredAt,
	}
}

func NewClientList(cs []*domain.Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewClientResponse(c))
	}
	return out
}

type DeleteClientResponse struct {
	DeletedOrders int `json:"deleted_orders"`
}
