package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Converter turns an order-currency amount into a whole-number settlement
// amount. Rates are fixed at construction; business code never reads them
// from the environment.
type Converter struct {
	Settlement  string
	BaseRate    decimal.Decimal
	multipliers map[string]decimal.Decimal
	MinAmount   int64
}

func NewConverter(settlement string, baseRate, minAmount int64, multipliers map[string]float64) Converter {
	m := make(map[string]decimal.Decimal, len(multipliers))
	for code, f := range multipliers {
		m[strings.ToUpper(code)] = decimal.NewFromFloat(f)
	}
	return Converter{
		Settlement:  strings.ToUpper(settlement),
		BaseRate:    decimal.NewFromInt(baseRate),
		multipliers: m,
		MinAmount:   minAmount,
	}
}

// ToSettlement converts amount from the given source currency. Negative input
// is treated as zero. The same-currency path only rounds. Every result is
// floored at MinAmount so it clears the gateway's minimum chargeable amount.
func (c Converter) ToSettlement(amount decimal.Decimal, from string) int64 {
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	var converted decimal.Decimal
	if from == c.Settlement {
		converted = amount
	} else {
		rate := c.BaseRate
		if mul, ok := c.multipliers[from]; ok {
			rate = rate.Mul(mul)
		}
		converted = amount.Mul(rate)
	}

	n := converted.Round(0).IntPart()
	if n < c.MinAmount {
		return c.MinAmount
	}
	return n
}

// Rate reports the base exchange rate as an integer, for health reporting.
func (c Converter) Rate() int64 {
	return c.BaseRate.IntPart()
}
