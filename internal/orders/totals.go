package orders

import (
	"math"

	"comercio/m/domain"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals fills in the line total of every item and returns the header
// total. Each line is rounded to two decimals before summing; the policy is
// round-per-line-then-sum, not sum-then-round, and penny-level results depend
// on it.
func ComputeTotals(items []ItemInput) (float64, []domain.OrderItem) {
	out := make([]domain.OrderItem, len(items))
	var total float64
	for i, it := range items {
		lineTotal := Round2(it.UnitPrice * float64(it.Quantity))
		out[i] = domain.OrderItem{
			ProductID:      it.ProductID,
			Cantidad:       it.Quantity,
			PrecioUnitario: Round2(it.UnitPrice),
			PrecioTotal:    lineTotal,
		}
		total += lineTotal
	}
	return Round2(total), out
}
