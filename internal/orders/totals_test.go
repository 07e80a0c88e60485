package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 20.01, Round2(20.009999999999998))
	assert.Equal(t, 0.01, Round2(0.005))
	assert.Equal(t, -0.01, Round2(-0.005))
	assert.Equal(t, 1.0, Round2(1))
	assert.Equal(t, 0.3, Round2(0.30000000000000004))
}

func TestComputeTotalsRoundsPerLine(t *testing.T) {
	total, items := ComputeTotals([]ItemInput{
		{ProductID: 1, Quantity: 2, UnitPrice: 10.005},
	})
	require.Len(t, items, 1)
	assert.Equal(t, 20.01, total)
	assert.Equal(t, 20.01, items[0].PrecioTotal)
}

func TestComputeTotalsSumsRoundedLines(t *testing.T) {
	// Each 0.005 line rounds up to 0.01 before summing; rounding the raw
	// sum instead would give 0.01.
	total, items := ComputeTotals([]ItemInput{
		{ProductID: 1, Quantity: 1, UnitPrice: 0.005},
		{ProductID: 2, Quantity: 1, UnitPrice: 0.005},
	})
	require.Len(t, items, 2)
	assert.Equal(t, 0.01, items[0].PrecioTotal)
	assert.Equal(t, 0.01, items[1].PrecioTotal)
	assert.Equal(t, 0.02, total)
}

func TestComputeTotalsBinaryFloats(t *testing.T) {
	total, _ := ComputeTotals([]ItemInput{
		{ProductID: 1, Quantity: 3, UnitPrice: 0.1},
	})
	assert.Equal(t, 0.3, total)
}

func TestComputeTotalsCarriesItemFields(t *testing.T) {
	_, items := ComputeTotals([]ItemInput{
		{ProductID: 7, Quantity: 4, UnitPrice: 2.5},
	})
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ProductID)
	assert.Equal(t, int64(4), items[0].Cantidad)
	assert.Equal(t, 2.5, items[0].PrecioUnitario)
	assert.Equal(t, 10.0, items[0].PrecioTotal)
}
