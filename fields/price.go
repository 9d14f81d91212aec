// Package fields holds the pure text parsers used during card extraction.
// Nothing in this package touches the DOM.
package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumeric     = regexp.MustCompile(`[^0-9.]`)
	leadingDecimal = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)
)

// PriceToCents converts a raw price token to integer cents.
//
//	"$1,234" -> 123400
//	"Free"   -> 0
//	"abc"    -> (0, false)
//
// Amounts too large for int64 cents are treated as unparseable.
//
// Only the leading decimal number of the stripped token counts, so
// "$1.2.3" parses as 1.2.
func PriceToCents(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	if strings.ToLower(strings.TrimSpace(raw)) == "free" {
		return 0, true
	}

	digits := nonNumeric.ReplaceAllString(raw, "")
	if digits == "" {
		return 0, false
	}
	num := leadingDecimal.FindString(digits)
	if num == "" {
		return 0, false
	}
	dollars, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	cents := math.Floor(dollars*100 + 0.5)
	if math.IsNaN(cents) || math.IsInf(cents, 0) || cents >= math.MaxInt64 {
		return 0, false
	}
	return int64(cents), true
}
