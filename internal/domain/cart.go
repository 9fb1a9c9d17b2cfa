package domain

import (
	"encoding/json"
	"fmt"
)

// FallbackImageURL is used when a persisted line carries no usable image.
const FallbackImageURL = "/images/placeholder.png"

// CartLine is one product-option entry in the cart. Lines are unique by
// OptionID; StockCap of 0 means no known stock bound.
type CartLine struct {
	LineID          string  `json:"lineId"`
	ProductID       int64   `json:"productId"`
	OptionID        int64   `json:"productOptionId"`
	ProductName     string  `json:"productName"`
	Color           string  `json:"color"`
	Size            string  `json:"size"`
	UnitPrice       float64 `json:"unitPrice"`
	DiscountPercent int     `json:"discountPercent"`
	ImageURL        string  `json:"imageUrl"`
	Quantity        int     `json:"quantity"`
	StockCap        int     `json:"stockCap"`
}

// MakeLineID derives the line identity from product and option.
func MakeLineID(productID, optionID int64) string {
	return fmt.Sprintf("%d-%d", productID, optionID)
}

// ClampQuantity bounds q into [1, StockCap]. Values below 1 floor to 1; with
// no known stock bound the quantity is never capped.
func (l CartLine) ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	if l.StockCap > 0 && q > l.StockCap {
		return l.StockCap
	}
	return q
}

// Normalize repairs a line so it satisfies the cart invariants: quantity
// clamped, discount inside [0,100], derived line id and fallback image filled
// in when absent.
func (l CartLine) Normalize() CartLine {
	l.Quantity = l.ClampQuantity(l.Quantity)
	if l.DiscountPercent < 0 {
		l.DiscountPercent = 0
	}
	if l.DiscountPercent > 100 {
		l.DiscountPercent = 100
	}
	if l.UnitPrice < 0 {
		l.UnitPrice = 0
	}
	if l.LineID == "" {
		l.LineID = MakeLineID(l.ProductID, l.OptionID)
	}
	if l.ImageURL == "" {
		l.ImageURL = FallbackImageURL
	}
	return l
}

// DecodeCartLines parses a persisted cart document. Each entry is accepted or
// rejected on its own: an entry without a positive productOptionId is dropped
// (counted in rejected), any other missing or mistyped field degrades to its
// zero value and is repaired by Normalize. A document that is not a JSON
// array at all yields an error; callers start from an empty cart in that case.
func DecodeCartLines(data []byte) (lines []CartLine, rejected int, err error) {
	var entries []map[string]interface{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, 0, fmt.Errorf("cart document is not a JSON array: %w", err)
	}

	for _, e := range entries {
		optionID := coerceInt64(e["productOptionId"])
		if optionID <= 0 {
			rejected++
			continue
		}
		line := CartLine{
			LineID:          coerceString(e["lineId"]),
			ProductID:       coerceInt64(e["productId"]),
			OptionID:        optionID,
			ProductName:     coerceString(e["productName"]),
			Color:           coerceString(e["color"]),
			Size:            coerceString(e["size"]),
			UnitPrice:       coerceFloat(e["unitPrice"]),
			DiscountPercent: int(coerceInt64(e["discountPercent"])),
			ImageURL:        coerceString(e["imageUrl"]),
			Quantity:        int(coerceInt64(e["quantity"])),
			StockCap:        int(coerceInt64(e["stockCap"])),
		}
		lines = append(lines, line.Normalize())
	}
	return lines, rejected, nil
}

func coerceInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func coerceFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func coerceString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
