package menu

import "github.com/odyssey-erp/catering/internal/shared"

var (
	// ErrNotFound indicates the menu item does not exist.
	ErrNotFound = shared.NewError(shared.ErrNotFound, "menu item not found")
	// ErrInUse blocks deletion while line items reference the menu item.
	ErrInUse = shared.NewError(shared.ErrConflict, "menu item is referenced by line items")
	// ErrNegativePrice rejects negative unit prices.
	ErrNegativePrice = shared.NewError(shared.ErrValidation, "unit price cannot be negative")
)
