// Package menu manages the catalogue of priced menu items and services.
package menu

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit describes what a menu item's price is quoted per.
type Unit string

const (
	UnitPerson Unit = "PERSON"
	UnitPack   Unit = "PACK"
	UnitTray   Unit = "TRAY"
	UnitItem   Unit = "ITEM"
	UnitFixed  Unit = "FIXED"
	UnitDay    Unit = "DAY"
	UnitEvent  Unit = "EVENT"
	UnitOther  Unit = "OTHER"
)

// IsValid checks if the unit is known.
func (u Unit) IsValid() bool {
	switch u {
	case UnitPerson, UnitPack, UnitTray, UnitItem, UnitFixed, UnitDay, UnitEvent, UnitOther:
		return true
	}
	return false
}

// Item is a menu entry. UnitPrice is only a default copied into new line items.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        Unit            `json:"unit"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Details is the subset used to prefill a line item.
type Details struct {
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Description string          `json:"description"`
}

// SaveRequest creates or replaces a menu item.
type SaveRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        Unit            `json:"unit" validate:"omitempty,oneof=PERSON PACK TRAY ITEM FIXED DAY EVENT OTHER"`
	IsActive    *bool           `json:"is_active"`
}

// ListRequest filters the catalogue.
type ListRequest struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
