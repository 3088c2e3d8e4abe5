package money

import (
	"github.com/shopspring/decimal"
)

// Totals holds every derived amount of a priced document.
// AmountPaid and BalanceDue are only meaningful for invoices.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalBeforeTax decimal.Decimal `json:"total_before_tax"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
}

// Subtotal sums the rounded line totals. An empty slice yields 0.00.
func Subtotal[L Line](lines []L) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l.LineQuantity(), l.LineUnitPrice()))
	}
	return Round(sum)
}

// DiscountAmount applies spec to subtotal. Fixed discounts are clamped to
// [0, subtotal] and non-positive values yield no discount.
func DiscountAmount(subtotal decimal.Decimal, spec DiscountSpec) decimal.Decimal {
	if !spec.Value.GreaterThan(decimal.Zero) {
		return Round(decimal.Zero)
	}
	switch spec.Kind {
	case DiscountPercent:
		return Round(subtotal.Mul(spec.Value).Div(hundred))
	case DiscountFixed:
		return Round(decimal.Min(subtotal, spec.Value))
	default:
		return Round(decimal.Zero)
	}
}

// TotalBeforeTax is subtotal minus discount.
func TotalBeforeTax(subtotal, discount decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Sub(discount))
}

// TaxAmount charges the flat rate on totalBeforeTax when tax is active.
func TaxAmount(totalBeforeTax decimal.Decimal, tax TaxSettings) decimal.Decimal {
	if !tax.Active() {
		return Round(decimal.Zero)
	}
	return Round(totalBeforeTax.Mul(tax.RatePercent).Div(hundred))
}

// GrandTotal adds tax on top of totalBeforeTax.
func GrandTotal(totalBeforeTax decimal.Decimal, tax TaxSettings) decimal.Decimal {
	return Round(totalBeforeTax.Add(TaxAmount(totalBeforeTax, tax)))
}

// Payment is an amount applied against an invoice.
type Payment interface {
	PaymentAmount() decimal.Decimal
}

// AmountPaid sums payment amounts.
func AmountPaid[P Payment](payments []P) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.PaymentAmount())
	}
	return Round(sum)
}

// BalanceDue is grandTotal minus amountPaid. Overpayment yields a negative value.
func BalanceDue(grandTotal, amountPaid decimal.Decimal) decimal.Decimal {
	return Round(grandTotal.Sub(amountPaid))
}

// Calculate runs a single pass over the document snapshot.
func Calculate[L Line](lines []L, discount DiscountSpec, tax TaxSettings) Totals {
	subtotal := Subtotal(lines)
	discountAmount := DiscountAmount(subtotal, discount)
	beforeTax := TotalBeforeTax(subtotal, discountAmount)
	taxAmount := TaxAmount(beforeTax, tax)
	grand := Round(beforeTax.Add(taxAmount))
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TotalBeforeTax: beforeTax,
		TaxAmount:      taxAmount,
		GrandTotal:     grand,
		AmountPaid:     Round(decimal.Zero),
		BalanceDue:     grand,
	}
}

// WithPayments fills AmountPaid and BalanceDue from payments.
func WithPayments[P Payment](t Totals, payments []P) Totals {
	t.AmountPaid = AmountPaid(payments)
	t.BalanceDue = BalanceDue(t.GrandTotal, t.AmountPaid)
	return t
}
