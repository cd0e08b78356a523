package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts an extracted amount string like "1.234,56",
// "1,234.56", "EUR 400.00" or "-87.20" into a positive float. Invoices
// sometimes state totals as negative (credits); the absolute value is
// used, matching the extraction prompt.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "€$£ ")

	// Drop everything that is not a digit, sign or separator.
	var b strings.Builder
	for _, r := range cleaned {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned = b.String()
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric content in %q", s)
	}

	// Decide decimal separator: the rightmost of '.' and ',' wins,
	// the other is treated as a thousands separator.
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case lastDot > lastComma:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return math.Abs(v), nil
}

// FormatAmount renders an amount the way the workbook and entity DTOs
// expect it: two decimals, no grouping.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
