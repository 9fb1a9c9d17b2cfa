// Package pricing computes cart money amounts. All functions are pure;
// amounts accumulate in full float precision and are rounded only for
// display.
package pricing

import (
	"math"

	"github.com/fjod/go_storefront/internal/domain"
)

// TaxRate is the flat GST rate applied on the subtotal. Swap per market.
const TaxRate = 0.09

// FinalUnitPrice applies the discount percentage to a unit price.
func FinalUnitPrice(price float64, discountPercent int) float64 {
	return price * (1 - float64(discountPercent)/100)
}

func LineTotal(line domain.CartLine) float64 {
	return FinalUnitPrice(line.UnitPrice, line.DiscountPercent) * float64(line.Quantity)
}

func Subtotal(lines []domain.CartLine) float64 {
	var sum float64
	for _, line := range lines {
		sum += LineTotal(line)
	}
	return sum
}

func Tax(subtotal float64) float64 {
	return subtotal * TaxRate
}

func GrandTotal(lines []domain.CartLine) float64 {
	sub := Subtotal(lines)
	return sub + Tax(sub)
}

func ItemCount(lines []domain.CartLine) int {
	var count int
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

// RoundDisplay rounds to two decimal places. Display only; never feed the
// result back into accumulation.
func RoundDisplay(amount float64) float64 {
	return math.Round(amount*100) / 100
}
