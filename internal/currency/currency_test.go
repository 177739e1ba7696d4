package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestConverter() Converter {
	return NewConverter("IQD", 1320, 1000, map[string]float64{
		"EUR": 1.1,
		"GBP": 1.25,
	})
}

func TestToSettlement(t *testing.T) {
	conv := newTestConverter()

	tests := []struct {
		name   string
		amount string
		from   string
		want   int64
	}{
		{"usd base rate", "49.99", "USD", 65987},
		{"small amount floored to minimum", "0.10", "USD", 1000},
		{"zero floored to minimum", "0", "USD", 1000},
		{"eur multiplier", "10", "EUR", 14520},
		{"gbp multiplier", "10", "GBP", 16500},
		{"unknown currency uses base rate", "10", "AUD", 13200},
		{"same currency rounds only", "2500.4", "IQD", 2500},
		{"same currency still floored", "500", "IQD", 1000},
		{"lowercase currency code", "1", "usd", 1320},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.want, conv.ToSettlement(amount, tt.from))
		})
	}
}

func TestToSettlementNegativeTreatedAsZero(t *testing.T) {
	conv := newTestConverter()
	got := conv.ToSettlement(decimal.NewFromInt(-10), "USD")
	assert.Equal(t, int64(1000), got)
}

func TestToSettlementAlwaysPositive(t *testing.T) {
	conv := newTestConverter()
	for _, amount := range []string{"0", "0.0001", "0.75", "1", "100000"} {
		got := conv.ToSettlement(decimal.RequireFromString(amount), "USD")
		assert.GreaterOrEqual(t, got, int64(1000), "amount %s", amount)
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, int64(1320), newTestConverter().Rate())
}
