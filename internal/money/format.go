package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders amount with thousands separators, e.g. "RM 1,234.50".
// An empty symbol omits the prefix. Amounts beyond int64 are grouped by hand.
func Format(amount decimal.Decimal, symbol string) string {
	rounded := Round(amount)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	whole := rounded.Truncate(0)
	frac := rounded.Sub(whole).Shift(Places).IntPart()

	var b strings.Builder
	if symbol != "" {
		b.WriteString(symbol)
		b.WriteByte(' ')
	}
	b.WriteString(sign)
	if whole.BigInt().IsInt64() {
		b.WriteString(printer.Sprintf("%d", whole.IntPart()))
	} else {
		b.WriteString(groupDigits(whole.String()))
	}
	b.WriteString(printer.Sprintf(".%02d", frac))
	return b.String()
}

// groupDigits covers amounts past int64, where the printer cannot be used.
func groupDigits(digits string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
