// Package validate holds the pure field predicates used by the checkout
// forms. Every function is total: bad input yields false or an empty result,
// never a panic.
package validate

import (
	"strings"
	"time"
)

// PostalCode requires exactly 6 ASCII digits.
func PostalCode(s string) bool {
	return len(s) == 6 && allDigits(s)
}

type regionRange struct {
	start  int
	end    int
	region string
}

// Postal sectors (first two digits) mapped to delivery regions. Ranges are
// inclusive and non-overlapping; sectors outside every range have no region.
var regionTable = []regionRange{
	{1, 8, "City"},
	{9, 10, "Orchard"},
	{11, 13, "Central South"},
	{14, 16, "Queenstown"},
	{17, 17, "City"},
	{18, 19, "Central East"},
	{20, 23, "Central North"},
	{24, 27, "Central West"},
	{28, 30, "Central North"},
	{31, 33, "Serangoon"},
	{34, 45, "East Coast"},
	{46, 48, "Bedok"},
	{49, 50, "Changi"},
	{51, 52, "Tampines"},
	{53, 55, "Hougang"},
	{56, 57, "Ang Mo Kio"},
	{58, 59, "Upper Bukit Timah"},
	{60, 64, "Jurong"},
	{65, 68, "Jurong West"},
	{69, 71, "Woodlands"},
	{72, 73, "Sembawang"},
	{75, 76, "Yishun"},
	{77, 78, "Seletar"},
	{79, 80, "Punggol"},
	{81, 81, "Changi"},
	{82, 82, "Punggol"},
}

// Region resolves a valid postal code to its delivery region. Invalid codes
// and sectors outside the table resolve to "".
func Region(postalCode string) string {
	if !PostalCode(postalCode) {
		return ""
	}
	sector := int(postalCode[0]-'0')*10 + int(postalCode[1]-'0')
	for _, r := range regionTable {
		if sector >= r.start && sector <= r.end {
			return r.region
		}
	}
	return ""
}

// Phone accepts local mobile and landline numbers: 8 digits starting with
// 6, 8 or 9, whitespace ignored.
func Phone(s string) bool {
	s = stripSpaces(s)
	if len(s) != 8 || !allDigits(s) {
		return false
	}
	return s[0] == '6' || s[0] == '8' || s[0] == '9'
}

// CardNumber checks structure only (not authenticity): 13-19 digits passing
// the Luhn checksum, whitespace ignored.
func CardNumber(s string) bool {
	s = stripSpaces(s)
	if len(s) < 13 || len(s) > 19 || !allDigits(s) {
		return false
	}

	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Expiry validates an MM/YY card expiry against now. The two-digit year is
// compared mod 100, which is ambiguous across century boundaries; acceptable
// because card validity spans only a few years.
func Expiry(s string, now time.Time) bool {
	if len(s) != 5 || s[2] != '/' {
		return false
	}
	mm, yy := s[:2], s[3:]
	if !allDigits(mm) || !allDigits(yy) {
		return false
	}
	month := int(mm[0]-'0')*10 + int(mm[1]-'0')
	year := int(yy[0]-'0')*10 + int(yy[1]-'0')
	if month < 1 || month > 12 {
		return false
	}

	nowYear := now.Year() % 100
	if year != nowYear {
		return year > nowYear
	}
	return month >= int(now.Month())
}

// CVV accepts 3 or 4 digits.
func CVV(s string) bool {
	return (len(s) == 3 || len(s) == 4) && allDigits(s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
