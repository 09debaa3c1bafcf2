// Package present turns domain results into the descriptors the map widget
// and metric cards consume. Output is fixed to Brazilian number conventions
// and never depends on the host locale.
package present

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberFormat renders numbers with explicit separators and a fixed number
// of decimal places. Rounding is half away from zero.
type NumberFormat struct {
	Grouping string
	Decimal  string
	Places   int
}

var (
	// Currency formats monetary values: 12.000,00.
	Currency = NumberFormat{Grouping: ".", Decimal: ",", Places: 2}
	// Integer formats counts: 1.234.
	Integer = NumberFormat{Grouping: ".", Decimal: ",", Places: 0}
	// Percent formats percentages without the sign: 10,0.
	Percent = NumberFormat{Grouping: ".", Decimal: ",", Places: 1}
)

// Format renders v. NaN and infinities render as zero.
func (f NumberFormat) Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	places := f.Places
	if places < 0 {
		places = 0
	}

	s := decimal.NewFromFloat(v).StringFixed(int32(places))
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(group(intPart, f.Grouping))
	if places > 0 {
		b.WriteString(f.Decimal)
		b.WriteString(frac)
	}
	return b.String()
}

// group inserts sep every three digits from the right.
func group(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Format renders a currency-like value: Format(12000) == "12.000,00".
func Format(v float64) string {
	return Currency.Format(v)
}

// BRL prefixes a currency value with the real sign.
func BRL(v float64) string {
	return "R$ " + Currency.Format(v)
}
