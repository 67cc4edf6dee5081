package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// All monetary values move through the engine as int64 paise. Floating point
// never enters a computation; repeated runs over the same inputs must produce
// identical results.

// ParsePaise converts a raw extracted amount string into paise. It tolerates
// the forms providers emit: currency symbols, "Rs."/"INR" prefixes, Indian
// digit grouping, and up to two decimal places.
func ParsePaise(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "₹")
	for _, p := range []string{"Rs.", "Rs", "INR", "rs.", "rs"} {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	v := w*100 + f
	if neg {
		v = -v
	}
	return v, nil
}

// RupeesToPaise converts whole rupees to paise.
func RupeesToPaise(r int64) int64 { return r * 100 }

// FormatPaise renders paise as a plain rupee string with two decimals.
func FormatPaise(p int64) string {
	neg := ""
	if p < 0 {
		neg = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", neg, p/100, p%100)
}

// RoundTaxTo10 rounds a liability to the nearest ten rupees, as the
// jurisdiction requires for the final tax figure.
func RoundTaxTo10(paise int64) int64 {
	const ten = 10 * 100
	half := int64(ten / 2)
	if paise >= 0 {
		return ((paise + half) / ten) * ten
	}
	return -(((-paise + half) / ten) * ten)
}
