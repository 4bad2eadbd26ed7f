package cot

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCompact renders an open-interest figure in the dashboard's compact
// form: 534000 -> "534K", 1250000 -> "1.25M". Values under a thousand are
// printed as-is.
func FormatCompact(v float64) string {
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return neg + trimZeros(fmt.Sprintf("%.2f", v/1e9)) + "B"
	case v >= 1e6:
		return neg + trimZeros(fmt.Sprintf("%.2f", v/1e6)) + "M"
	case v >= 1e3:
		return neg + trimZeros(fmt.Sprintf("%.0f", v/1e3)) + "K"
	default:
		return neg + trimZeros(fmt.Sprintf("%.0f", v))
	}
}

// ParseCompact recovers a numeric value from its compact form, within the
// base-10 rounding tolerance of the suffix used.
func ParseCompact(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1e3
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1e6
		s = s[:len(s)-1]
	case 'B', 'b':
		mult = 1e9
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse compact value %q: %w", s, err)
	}
	return v * mult, nil
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}
