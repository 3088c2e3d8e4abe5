package documents

import "github.com/odyssey-erp/catering/internal/shared"

var (
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = shared.NewError(shared.ErrNotFound, "document not found")
	// ErrPaymentNotFound indicates the payment does not exist.
	ErrPaymentNotFound = shared.NewError(shared.ErrNotFound, "payment not found")
	// ErrIllegalTransition is returned when the current status forbids the operation.
	ErrIllegalTransition = shared.NewError(shared.ErrConflict, "illegal status transition")
	// ErrOrderExists blocks a second order from the same quotation.
	ErrOrderExists = shared.NewError(shared.ErrConflict, "quotation already has an order")
	// ErrLinesReferenced blocks replacing items that deliveries or credit notes point at.
	ErrLinesReferenced = shared.NewError(shared.ErrConflict, "items are referenced by other documents")

	ErrClientMismatch    = shared.NewError(shared.ErrInvariant, "client does not match linked document")
	ErrItemNotInOrder    = shared.NewError(shared.ErrInvariant, "item does not belong to the order")
	ErrQuantityExceeds   = shared.NewError(shared.ErrInvariant, "quantity exceeds remaining ordered quantity")
	ErrItemNotInInvoice  = shared.NewError(shared.ErrInvariant, "item does not belong to the invoice")
	ErrPaymentNotAllowed = shared.NewError(shared.ErrInvariant, "invoice does not accept payments")
	ErrMenuItemInactive  = shared.NewError(shared.ErrInvariant, "menu item is inactive")
	ErrInvoiceNotIssued  = shared.NewError(shared.ErrInvariant, "invoice has not been issued")

	ErrInvalidAmount   = shared.NewError(shared.ErrValidation, "amount must be at least 0.01")
	ErrInvalidQuantity = shared.NewError(shared.ErrValidation, "quantity must not be negative")
	ErrInvalidLine     = shared.NewError(shared.ErrValidation, "line needs a menu item or a description and unit price")
	ErrInvalidMethod   = shared.NewError(shared.ErrValidation, "unknown payment method")
	ErrInvalidStatus   = shared.NewError(shared.ErrValidation, "unknown status")
	ErrInvalidDiscount = shared.NewError(shared.ErrValidation, "invalid discount")
)
