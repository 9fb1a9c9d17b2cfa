package pricing

import (
	"testing"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalUnitPrice(t *testing.T) {
	assert.InDelta(t, 100.0, FinalUnitPrice(100, 0), 1e-9)
	assert.InDelta(t, 75.0, FinalUnitPrice(100, 25), 1e-9)
	assert.InDelta(t, 0.0, FinalUnitPrice(100, 100), 1e-9)
	assert.InDelta(t, 0.0, FinalUnitPrice(0, 50), 1e-9)
}

func TestFinalUnitPrice_MonotoneInDiscount(t *testing.T) {
	price := 59.90
	prev := FinalUnitPrice(price, 0)
	for d := 1; d <= 100; d++ {
		cur := FinalUnitPrice(price, d)
		require.LessOrEqual(t, cur, prev, "discount %d should not raise the price", d)
		prev = cur
	}
}

func TestLineTotal(t *testing.T) {
	line := domain.CartLine{UnitPrice: 20, DiscountPercent: 10, Quantity: 3}
	assert.InDelta(t, 54.0, LineTotal(line), 1e-9)
}

func TestSubtotal_IsSumOfLineTotals(t *testing.T) {
	lines := []domain.CartLine{
		{UnitPrice: 10, DiscountPercent: 0, Quantity: 2},
		{UnitPrice: 39.90, DiscountPercent: 15, Quantity: 1},
		{UnitPrice: 5.55, DiscountPercent: 50, Quantity: 4},
	}

	var expected float64
	for _, line := range lines {
		expected += LineTotal(line)
	}
	assert.InDelta(t, expected, Subtotal(lines), 1e-9)
}

func TestGrandTotal_AppliesTaxRate(t *testing.T) {
	lines := []domain.CartLine{
		{UnitPrice: 100, Quantity: 1},
	}

	sub := Subtotal(lines)
	assert.InDelta(t, sub*TaxRate, Tax(sub), 1e-9)
	assert.InDelta(t, sub+sub*TaxRate, GrandTotal(lines), 1e-9)
}

func TestGrandTotal_EmptyCart(t *testing.T) {
	assert.Zero(t, GrandTotal(nil))
	assert.Zero(t, Subtotal(nil))
	assert.Zero(t, ItemCount(nil))
}

func TestItemCount(t *testing.T) {
	lines := []domain.CartLine{
		{Quantity: 2},
		{Quantity: 5},
	}
	assert.Equal(t, 7, ItemCount(lines))
}

func TestRoundDisplay(t *testing.T) {
	assert.InDelta(t, 10.57, RoundDisplay(10.566), 1e-9)
	assert.InDelta(t, 0.0, RoundDisplay(0.004), 1e-9)
	// Accumulate first, round once: three lines of 1/3 dollar each.
	assert.InDelta(t, 1.0, RoundDisplay(1.0/3+1.0/3+1.0/3), 1e-9)
}
