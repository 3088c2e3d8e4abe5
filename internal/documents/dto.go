package documents

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// REQUESTS
// ============================================================================

// LineRequest describes one priced line. MenuItemID alone is enough: the
// description and unit price are then copied from the menu item.
type LineRequest struct {
	MenuItemID    *int64           `json:"menu_item_id,omitempty" validate:"omitempty,gt=0"`
	Description   string           `json:"description" validate:"max=500"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	GroupingLabel string           `json:"grouping_label" validate:"max=100"`
}

type DiscountRequest struct {
	Kind  string          `json:"kind" validate:"omitempty,oneof=NONE PERCENT PERCENTAGE FIXED none percent percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

type QuotationRequest struct {
	ClientID int64           `json:"client_id" validate:"required,gt=0"`
	Title    string          `json:"title" validate:"required,max=200"`
	Discount DiscountRequest `json:"discount"`
	Terms    string          `json:"terms"`
	Notes    string          `json:"notes"`
	Items    []LineRequest   `json:"items" validate:"dive"`
}

type OrderRequest struct {
	ClientID        int64           `json:"client_id" validate:"required,gt=0"`
	QuotationID     *int64          `json:"quotation_id,omitempty" validate:"omitempty,gt=0"`
	Title           string          `json:"title" validate:"required,max=200"`
	EventDate       *time.Time      `json:"event_date,omitempty"`
	DeliveryAddress string          `json:"delivery_address"`
	Discount        DiscountRequest `json:"discount"`
	Notes           string          `json:"notes"`
	Items           []LineRequest   `json:"items" validate:"dive"`
}

type InvoiceRequest struct {
	ClientID       int64           `json:"client_id" validate:"required,gt=0"`
	QuotationID    *int64          `json:"quotation_id,omitempty" validate:"omitempty,gt=0"`
	OrderID        *int64          `json:"order_id,omitempty" validate:"omitempty,gt=0"`
	Title          string          `json:"title" validate:"required,max=200"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Discount       DiscountRequest `json:"discount"`
	Terms          string          `json:"terms"`
	PaymentDetails string          `json:"payment_details"`
	Notes          string          `json:"notes"`
	Items          []LineRequest   `json:"items" validate:"dive"`
}

type PaymentRequest struct {
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"omitempty,oneof=BANK CASH CHEQUE CARD ONLINE OTHER"`
	Reference   string          `json:"reference" validate:"max=100"`
	Notes       string          `json:"notes"`
}

type DeliveryItemRequest struct {
	OrderItemID int64           `json:"order_item_id" validate:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity_delivered"`
}

type DeliveryOrderRequest struct {
	OrderID         int64                 `json:"order_id" validate:"required,gt=0"`
	DeliveryDate    *time.Time            `json:"delivery_date,omitempty"`
	Recipient       string                `json:"recipient" validate:"max=200"`
	AddressOverride string                `json:"address_override"`
	Notes           string                `json:"notes"`
	Items           []DeliveryItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreditNoteItemRequest struct {
	InvoiceItemID *int64           `json:"invoice_item_id,omitempty" validate:"omitempty,gt=0"`
	Description   string           `json:"description" validate:"max=500"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
}

type CreditNoteRequest struct {
	ClientID  int64                   `json:"client_id" validate:"required,gt=0"`
	InvoiceID *int64                  `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
	Reason    string                  `json:"reason"`
	Items     []CreditNoteItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ============================================================================
// FILTERS
// ============================================================================

type QuotationFilter struct {
	Status   QuotationStatus
	ClientID int64
	Limit    int
	Offset   int
}

type OrderFilter struct {
	Status   OrderStatus
	ClientID int64
	Limit    int
	Offset   int
}

type InvoiceFilter struct {
	Status   InvoiceStatus
	ClientID int64
	OrderID  int64
	Limit    int
	Offset   int
}

type DeliveryOrderFilter struct {
	Status  DeliveryStatus
	OrderID int64
	Limit   int
	Offset  int
}

type CreditNoteFilter struct {
	ClientID  int64
	InvoiceID int64
	Limit     int
	Offset    int
}
