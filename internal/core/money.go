// Package core provides money parsing and handling utilities.
//
// Amounts are whole rupiah. Display formatting follows the id-ID locale:
// dot as thousands separator, no decimals.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const maxAmount = 1<<53 - 1

// ParseAmount converts user input to rupiah.
//
// Thousands separators (dots, commas, spaces) and an optional "Rp" prefix are
// accepted. A separator must be followed by exactly three digits, so decimal
// input such as "12.5" or "25.000,50" is rejected. The result is always
// positive.
//
// Examples:
//
//	ParseAmount("25000")      -> 25000, nil
//	ParseAmount("Rp 25.000")  -> 25000, nil
//	ParseAmount("1,500,000")  -> 1500000, nil
//	ParseAmount("12.5")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp"))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	var b strings.Builder
	group, grouped := 0, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			group++
		case r == '.' || r == ',' || r == ' ' || r == '\u00a0':
			if group == 0 || (grouped && group != 3) || (!grouped && group > 3) {
				return 0, ErrInvalidAmount
			}
			group, grouped = 0, true
		default:
			return 0, ErrInvalidAmount
		}
	}
	if grouped && group != 3 {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || v <= 0 || v > maxAmount {
		return 0, ErrInvalidAmount
	}
	return Money(v), nil
}

// FormatIDR renders an amount as "Rp 1.000.000". Negative amounts carry a
// leading minus sign.
func FormatIDR(m Money) string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "Rp " + humanize.FormatInteger("#.###,", int(v))
}

// FormatIDRCompact renders large amounts with juta/ribu suffixes:
// 1500000 -> "Rp 1.5jt", 250000 -> "Rp 250rb".
func FormatIDRCompact(m Money) string {
	v := float64(m)
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("Rp %.1fjt", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("Rp %.0frb", v/1_000)
	default:
		return FormatIDR(m)
	}
}
