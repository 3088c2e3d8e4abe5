package perf

import (
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/catering/internal/documents"
	"github.com/odyssey-erp/catering/internal/money"
)

func banquetLines(n int) []documents.LineItem {
	lines := make([]documents.LineItem, n)
	for i := range lines {
		lines[i] = documents.LineItem{
			Description: "Course " + strconv.Itoa(i),
			Quantity:    decimal.NewFromInt(int64(i%40 + 1)),
			UnitPrice:   decimal.RequireFromString("18.35").Add(decimal.New(int64(i%7), -1)),
		}
	}
	return lines
}

var (
	banquetDiscount = money.DiscountSpec{Kind: money.DiscountPercent, Value: decimal.RequireFromString("7.5")}
	banquetTax      = money.TaxSettings{Enabled: true, RatePercent: decimal.RequireFromString("6")}
)

func BenchmarkCalculateBanquet(b *testing.B) {
	lines := banquetLines(250)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = money.Calculate(lines, banquetDiscount, banquetTax)
	}
}

func BenchmarkFormatAmount(b *testing.B) {
	amount := decimal.RequireFromString("1234567.895")
	for i := 0; i < b.N; i++ {
		_ = money.Format(amount, "RM")
	}
}

func TestCalculateLatencyBudget(t *testing.T) {
	lines := banquetLines(500)
	samples := make([]time.Duration, 0, 50)
	for i := 0; i < 50; i++ {
		start := time.Now()
		totals := money.Calculate(lines, banquetDiscount, banquetTax)
		samples = append(samples, time.Since(start))
		assert.True(t, totals.GrandTotal.IsPositive())
	}
	p95 := percentile95(samples)
	if p95 > 50*time.Millisecond {
		t.Fatalf("calculate latency regression: p95=%s threshold=%s", p95, 50*time.Millisecond)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
