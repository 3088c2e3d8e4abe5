// Package money computes document totals with two-decimal rounding.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits kept for every monetary amount.
const Places int32 = 2

var hundred = decimal.NewFromInt(100)

// ErrUnknownDiscountKind is returned when parsing an unsupported discount kind.
var ErrUnknownDiscountKind = errors.New("unknown discount kind")

// DiscountKind selects how a document discount is applied.
type DiscountKind string

const (
	DiscountNone    DiscountKind = "NONE"
	DiscountPercent DiscountKind = "PERCENT"
	DiscountFixed   DiscountKind = "FIXED"
)

// ParseDiscountKind accepts the stored spelling plus the long PERCENTAGE form.
func ParseDiscountKind(s string) (DiscountKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(DiscountNone):
		return DiscountNone, nil
	case string(DiscountPercent), "PERCENTAGE":
		return DiscountPercent, nil
	case string(DiscountFixed):
		return DiscountFixed, nil
	}
	return "", ErrUnknownDiscountKind
}

// IsValid reports whether k is a known discount kind.
func (k DiscountKind) IsValid() bool {
	switch k {
	case DiscountNone, DiscountPercent, DiscountFixed:
		return true
	}
	return false
}

// DiscountSpec is the document level discount configuration.
// Value is a percentage (0-100) for DiscountPercent and an amount for DiscountFixed.
type DiscountSpec struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// NoDiscount returns an empty discount spec.
func NoDiscount() DiscountSpec {
	return DiscountSpec{Kind: DiscountNone, Value: decimal.Zero}
}

// TaxSettings is the flat tax configuration applied after discounts.
type TaxSettings struct {
	Enabled     bool            `json:"enabled"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// Active reports whether tax should be charged at all.
func (t TaxSettings) Active() bool {
	return t.Enabled && t.RatePercent.GreaterThan(decimal.Zero)
}

// Round rounds to two places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Line is anything priced as quantity times unit price.
type Line interface {
	LineQuantity() decimal.Decimal
	LineUnitPrice() decimal.Decimal
}

// LineTotal returns round2(quantity * unitPrice).
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(quantity.Mul(unitPrice))
}
