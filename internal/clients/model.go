// Package clients manages the customers referenced by every document.
package clients

import "time"

// Client represents a catering customer.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentSummary is a one-line view of a document shown on the client page.
type DocumentSummary struct {
	ID     int64      `json:"id"`
	Number string     `json:"number"`
	Title  string     `json:"title"`
	Status string     `json:"status"`
	Date   *time.Time `json:"date,omitempty"`
}

// Detail is a client with its most recent documents.
type Detail struct {
	Client
	Quotations []DocumentSummary `json:"quotations"`
	Orders     []DocumentSummary `json:"orders"`
	Invoices   []DocumentSummary `json:"invoices"`
}

// SaveRequest is used for both create and update.
type SaveRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
}

// ListRequest filters the client list.
type ListRequest struct {
	Search string
	Limit  int
	Offset int
}
