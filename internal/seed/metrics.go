package seed

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const changePercentPlaces = 4

var hundred = decimal.NewFromInt(100)

type InvestmentMetrics struct {
	CurrentValue  decimal.Decimal
	ChangeValue   decimal.Decimal
	ChangePercent decimal.Decimal
}

// ComputeInvestmentMetrics derives a position's stored figures from its
// average cost and current price. ChangeValue is the gain across the whole
// position; ChangePercent is the per-unit price move relative to cost.
func ComputeInvestmentMetrics(quantity, averageCost, currentPrice decimal.Decimal) (InvestmentMetrics, error) {
	if quantity.IsNegative() {
		return InvestmentMetrics{}, fmt.Errorf("quantity must not be negative")
	}
	if !averageCost.IsPositive() {
		return InvestmentMetrics{}, fmt.Errorf("average cost must be positive")
	}
	if currentPrice.IsNegative() {
		return InvestmentMetrics{}, fmt.Errorf("current price must not be negative")
	}

	unitChange := currentPrice.Sub(averageCost)
	return InvestmentMetrics{
		CurrentValue:  quantity.Mul(currentPrice),
		ChangeValue:   unitChange.Mul(quantity),
		ChangePercent: unitChange.Div(averageCost).Mul(hundred).Round(changePercentPlaces),
	}, nil
}
