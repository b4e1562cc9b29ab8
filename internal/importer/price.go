package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var currencySuffixRe = regexp.MustCompile(`\s*(KN|KUNA|HRK|EUR|USD)\s*$`)

// ParsePrice parses a decimal price into minor units.
// Handles "12.99", "12,99", "1.299,00", "1 299,00 EUR" and "€7". The last
// '.' or ',' is the decimal separator, so at most two digits may follow it:
// "12,999" and a bare thousands group such as "1.299" are rejected as
// ambiguous rather than rounded.
func ParsePrice(value string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '€', '$', '£', ' ', '\u00A0':
			return -1
		}
		return r
	}, strings.TrimSpace(value))
	cleaned = currencySuffixRe.ReplaceAllString(strings.ToUpper(cleaned), "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty price value")
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastComma > lastDot:
		// 1.234,56
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case lastDot > lastComma:
		// 1,234.56
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	whole, frac, _ := strings.Cut(cleaned, ".")
	if !isDigits(whole) || !isDigits(frac) || whole+frac == "" {
		return 0, fmt.Errorf("invalid price format %q", value)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid price %q: more than two decimal places", value)
	}

	var units int64
	if whole != "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || n > (math.MaxInt64-99)/100 {
			return 0, fmt.Errorf("price %q out of range", value)
		}
		units = n
	}
	var cents int64
	if frac != "" {
		cents, _ = strconv.ParseInt(frac+strings.Repeat("0", 2-len(frac)), 10, 64)
	}
	return units*100 + cents, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseSaleStatus reads a sale flag. Empty means not on sale.
func ParseSaleStatus(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "ne", "n", "regular":
		return false, nil
	case "1", "true", "yes", "da", "y", "sale", "akcija":
		return true, nil
	default:
		return false, fmt.Errorf("invalid sale status %q", value)
	}
}

// FormatMinor formats minor units as a decimal string (e.g. 1299 -> "12.99").
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
