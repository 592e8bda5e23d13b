package numeric

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat parses a decimal number, ignoring every character that is not a
// digit or a dot. Thousands separators and stray brackets are dropped:
// "1,250.5" and "[12]" both parse.
func ToFloat(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ToInt parses the digits in s. Text with no digits, like "no" or "none",
// counts as zero.
func ToInt(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// Round rounds to two decimal places.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}
