// Package documents implements the catering document lifecycle: quotations,
// orders, invoices, payments, delivery orders and credit notes.
package documents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/money"
)

// ============================================================================
// STATUSES
// ============================================================================

// QuotationStatus represents the lifecycle state of a quotation.
type QuotationStatus string

const (
	QuotationStatusDraft      QuotationStatus = "DRAFT"
	QuotationStatusSent       QuotationStatus = "SENT"
	QuotationStatusAccepted   QuotationStatus = "ACCEPTED"
	QuotationStatusRejected   QuotationStatus = "REJECTED"
	QuotationStatusSuperseded QuotationStatus = "SUPERSEDED"
)

// IsValid checks if the status is known.
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSent, QuotationStatusAccepted,
		QuotationStatusRejected, QuotationStatusSuperseded:
		return true
	}
	return false
}

// CanEdit reports whether header and items may change.
func (s QuotationStatus) CanEdit() bool { return s == QuotationStatusDraft }

// CanFinalize reports whether the quotation can be sent.
func (s QuotationStatus) CanFinalize() bool { return s == QuotationStatusDraft }

// CanRevert reports whether a sent quotation can go back to draft.
func (s QuotationStatus) CanRevert() bool { return s == QuotationStatusSent }

// CanDecide reports whether the client's answer can be recorded.
func (s QuotationStatus) CanDecide() bool { return s == QuotationStatusSent }

// CanRevise reports whether a new version can supersede this one.
func (s QuotationStatus) CanRevise() bool {
	return s == QuotationStatusSent || s == QuotationStatusAccepted || s == QuotationStatusRejected
}

// CanCreateOrder reports whether the quotation can be turned into an order.
func (s QuotationStatus) CanCreateOrder() bool { return s == QuotationStatusAccepted }

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsValid checks if the status is known.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanEdit reports whether header and items may change.
func (s OrderStatus) CanEdit() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// CanCancel reports whether the order can be cancelled.
func (s OrderStatus) CanCancel() bool { return !s.IsTerminal() }

// CanInvoice reports whether invoices can be raised from the order.
func (s OrderStatus) CanInvoice() bool {
	return s == OrderStatusConfirmed || s == OrderStatusInProgress || s == OrderStatusCompleted
}

// CanDeliver reports whether delivery orders may be planned against the order.
func (s OrderStatus) CanDeliver() bool { return s != OrderStatusCancelled }

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is known.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanEdit reports whether header and items may change.
func (s InvoiceStatus) CanEdit() bool { return s == InvoiceStatusDraft }

// CanFinalize reports whether the invoice can be sent.
func (s InvoiceStatus) CanFinalize() bool { return s == InvoiceStatusDraft }

// CanRevert reports whether a sent invoice can go back to draft.
func (s InvoiceStatus) CanRevert() bool { return s == InvoiceStatusSent }

// CanCancel reports whether the invoice can be cancelled by an operator.
func (s InvoiceStatus) CanCancel() bool {
	return s != InvoiceStatusDraft && s != InvoiceStatusCancelled
}

// AcceptsPayments reports whether payments can be recorded and whether
// reconciliation may change the status.
func (s InvoiceStatus) AcceptsPayments() bool {
	return s != InvoiceStatusDraft && s != InvoiceStatusCancelled
}

// DeliveryStatus represents the lifecycle state of a delivery order.
type DeliveryStatus string

const (
	DeliveryStatusPlanned    DeliveryStatus = "PLANNED"
	DeliveryStatusDispatched DeliveryStatus = "DISPATCHED"
	DeliveryStatusDelivered  DeliveryStatus = "DELIVERED"
	DeliveryStatusCancelled  DeliveryStatus = "CANCELLED"
)

// IsValid checks if the status is known.
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusPlanned, DeliveryStatusDispatched, DeliveryStatusDelivered, DeliveryStatusCancelled:
		return true
	}
	return false
}

// CanEdit reports whether the delivery order can be changed.
func (s DeliveryStatus) CanEdit() bool { return s == DeliveryStatusPlanned }

// CanCancel reports whether the delivery order can be cancelled.
func (s DeliveryStatus) CanCancel() bool {
	return s == DeliveryStatusPlanned || s == DeliveryStatusDispatched
}

// CreditNoteStatus represents the lifecycle state of a credit note.
type CreditNoteStatus string

const (
	CreditNoteStatusDraft     CreditNoteStatus = "DRAFT"
	CreditNoteStatusIssued    CreditNoteStatus = "ISSUED"
	CreditNoteStatusCancelled CreditNoteStatus = "CANCELLED"
)

// IsValid checks if the status is known.
func (s CreditNoteStatus) IsValid() bool {
	switch s {
	case CreditNoteStatusDraft, CreditNoteStatusIssued, CreditNoteStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod records how a payment was received.
type PaymentMethod string

const (
	PaymentMethodBank   PaymentMethod = "BANK"
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCheque PaymentMethod = "CHEQUE"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodOther  PaymentMethod = "OTHER"
)

// IsValid checks if the method is known.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBank, PaymentMethodCash, PaymentMethodCheque,
		PaymentMethodCard, PaymentMethodOnline, PaymentMethodOther:
		return true
	}
	return false
}

// ============================================================================
// LINE ITEMS
// ============================================================================

// LineKind selects which document table a line item belongs to.
type LineKind string

const (
	LineKindQuotation LineKind = "quotation"
	LineKindOrder     LineKind = "order"
	LineKindInvoice   LineKind = "invoice"
)

// LineItem is a priced row of a quotation, order or invoice. UnitPrice is
// frozen when the line is created and never re-read from the menu.
type LineItem struct {
	ID            int64           `json:"id"`
	ParentID      int64           `json:"parent_id"`
	MenuItemID    *int64          `json:"menu_item_id,omitempty"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	GroupingLabel string          `json:"grouping_label,omitempty"`
	Position      int             `json:"position"`
}

func (l LineItem) LineQuantity() decimal.Decimal  { return l.Quantity }
func (l LineItem) LineUnitPrice() decimal.Decimal { return l.UnitPrice }

// LineTotal returns round2(quantity * unit price).
func (l LineItem) LineTotal() decimal.Decimal {
	return money.LineTotal(l.Quantity, l.UnitPrice)
}

// clone copies the priced content of a line for a new parent.
func (l LineItem) clone() LineItem {
	var menuItemID *int64
	if l.MenuItemID != nil {
		id := *l.MenuItemID
		menuItemID = &id
	}
	return LineItem{
		MenuItemID:    menuItemID,
		Description:   l.Description,
		Quantity:      l.Quantity,
		UnitPrice:     l.UnitPrice,
		GroupingLabel: l.GroupingLabel,
		Position:      l.Position,
	}
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.clone())
	}
	return out
}

// ============================================================================
// DOCUMENTS
// ============================================================================

// Quotation is a priced offer sent to a client. Revisions form a singly linked
// chain through PreviousVersionID.
type Quotation struct {
	ID                int64              `json:"id"`
	Number            string             `json:"number"`
	ClientID          int64              `json:"client_id"`
	Title             string             `json:"title"`
	IssueDate         *time.Time         `json:"issue_date,omitempty"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
	Status            QuotationStatus    `json:"status"`
	Version           int                `json:"version"`
	PreviousVersionID *int64             `json:"previous_version_id,omitempty"`
	Discount          money.DiscountSpec `json:"discount"`
	Terms             string             `json:"terms"`
	Notes             string             `json:"notes"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Items             []LineItem         `json:"items"`
}

// Totals recomputes the monetary summary from the current items.
func (q *Quotation) Totals(tax money.TaxSettings) money.Totals {
	return money.Calculate(q.Items, q.Discount, tax)
}

// Order is a confirmed catering job.
type Order struct {
	ID              int64              `json:"id"`
	Number          string             `json:"number"`
	ClientID        int64              `json:"client_id"`
	QuotationID     *int64             `json:"quotation_id,omitempty"`
	Title           string             `json:"title"`
	Status          OrderStatus        `json:"status"`
	EventDate       *time.Time         `json:"event_date,omitempty"`
	DeliveryAddress string             `json:"delivery_address"`
	Discount        money.DiscountSpec `json:"discount"`
	Notes           string             `json:"notes"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Items           []LineItem         `json:"items"`
}

// Totals recomputes the monetary summary from the current items.
func (o *Order) Totals(tax money.TaxSettings) money.Totals {
	return money.Calculate(o.Items, o.Discount, tax)
}

// Item returns the order item with the given id.
func (o *Order) Item(id int64) (LineItem, bool) {
	for _, it := range o.Items {
		if it.ID == id {
			return it, true
		}
	}
	return LineItem{}, false
}

// Invoice is a bill raised against a client.
type Invoice struct {
	ID             int64              `json:"id"`
	Number         string             `json:"number"`
	ClientID       int64              `json:"client_id"`
	QuotationID    *int64             `json:"quotation_id,omitempty"`
	OrderID        *int64             `json:"order_id,omitempty"`
	Title          string             `json:"title"`
	IssueDate      *time.Time         `json:"issue_date,omitempty"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
	Status         InvoiceStatus      `json:"status"`
	Discount       money.DiscountSpec `json:"discount"`
	Terms          string             `json:"terms"`
	PaymentDetails string             `json:"payment_details"`
	Notes          string             `json:"notes"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Items          []LineItem         `json:"items"`
	Payments       []Payment          `json:"payments"`
}

// Totals recomputes the monetary summary including payments received.
func (i *Invoice) Totals(tax money.TaxSettings) money.Totals {
	return money.WithPayments(money.Calculate(i.Items, i.Discount, tax), i.Payments)
}

// Item returns the invoice item with the given id.
func (i *Invoice) Item(id int64) (LineItem, bool) {
	for _, it := range i.Items {
		if it.ID == id {
			return it, true
		}
	}
	return LineItem{}, false
}

// Payment is money received against an invoice.
type Payment struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	PaymentDate time.Time       `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	Method      *PaymentMethod  `json:"method,omitempty"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p Payment) PaymentAmount() decimal.Decimal { return p.Amount }

// DeliveryOrder schedules delivery of part or all of an order.
type DeliveryOrder struct {
	ID              int64               `json:"id"`
	Number          string              `json:"number"`
	OrderID         int64               `json:"order_id"`
	DeliveryDate    *time.Time          `json:"delivery_date,omitempty"`
	Status          DeliveryStatus      `json:"status"`
	Recipient       string              `json:"recipient"`
	AddressOverride string              `json:"address_override"`
	Notes           string              `json:"notes"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Items           []DeliveryOrderItem `json:"items"`
}

// DeliveryOrderItem delivers a quantity of one order item.
type DeliveryOrderItem struct {
	ID                int64           `json:"id"`
	DeliveryOrderID   int64           `json:"delivery_order_id"`
	OrderItemID       int64           `json:"order_item_id"`
	QuantityDelivered decimal.Decimal `json:"quantity_delivered"`
}

// CreditNote reduces the amount a client owes.
type CreditNote struct {
	ID        int64            `json:"id"`
	Number    string           `json:"number"`
	ClientID  int64            `json:"client_id"`
	InvoiceID *int64           `json:"invoice_id,omitempty"`
	IssueDate *time.Time       `json:"issue_date,omitempty"`
	Status    CreditNoteStatus `json:"status"`
	Reason    string           `json:"reason"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Items     []CreditNoteItem `json:"items"`
}

// Totals recomputes the credited amount. Credit notes carry no discount.
func (c *CreditNote) Totals(tax money.TaxSettings) money.Totals {
	return money.Calculate(c.Items, money.NoDiscount(), tax)
}

// CreditNoteItem is a credited row, optionally tied to an invoice item.
type CreditNoteItem struct {
	ID            int64           `json:"id"`
	CreditNoteID  int64           `json:"credit_note_id"`
	InvoiceItemID *int64          `json:"invoice_item_id,omitempty"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

func (c CreditNoteItem) LineQuantity() decimal.Decimal  { return c.Quantity }
func (c CreditNoteItem) LineUnitPrice() decimal.Decimal { return c.UnitPrice }

// Warnings are non-fatal notices produced by an operation, e.g. a default that
// could not be applied because configuration was missing.
type Warnings []string
