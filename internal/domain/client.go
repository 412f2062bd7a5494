package domain

import "time"

// Client is a party of a shipment: sender, recipient or plain customer.
// It is identified by a unique tax/personal id (DNI or RUC).
// RegisteredAt is stamped once at creation and never changes.
type Client struct {
	ID           int64
	TaxID        string
	BusinessName string
	ContactName  string
	Email        string
	Mobile       string
	Phone        string
	Address      string
	City         string
	PostalCode   string
	RegisteredAt time.Time
}

// NewClient holds the caller-supplied fields of a client to be registered.
type NewClient struct {
	TaxID        string `validate:"required,numeric,len=8|len=11"`
	BusinessName string `validate:"required,max=150"`
	ContactName  string `validate:"max=100"`
	Email        string `validate:"omitempty,email,max=254"`
	Mobile       string `validate:"max=20"`
	Phone        string `validate:"max=20"`
	Address      string `validate:"max=200"`
	City         string `validate:"max=100"`
	PostalCode   string `validate:"max=10"`
}

// ClientFilter narrows client listings. Zero values mean "no constraint".
type ClientFilter struct {
	// Case-insensitive substring of business name, contact name or tax id.
	Query          string
	City           string
	RegisteredFrom *time.Time
	RegisteredTo   *time.Time
}
