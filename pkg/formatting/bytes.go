// Package formatting converts byte sizes to and from text and repairs JSON
// embedded in free-form model output.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Base-1024 units, indexed by exponent.
var units = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// ParseBytes reads sizes such as "10MB", "1.5 gb" or "512". A bare number is
// a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	num, unit := s, ""
	if i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i >= 0 {
		num, unit = s[:i], strings.TrimSpace(s[i:])
	}
	if num == "" {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp := 0
	if unit != "" {
		if exp = slices.Index(units[:], strings.ToUpper(unit)); exp < 0 {
			return 0, fmt.Errorf("unknown byte size unit %q", unit)
		}
	}

	return int64(value * math.Pow(1024, float64(exp))), nil
}

// FormatBytes renders n in the largest unit that keeps the value at or
// above 1, with precision decimals.
func FormatBytes(n int64, precision int) string {
	size := float64(n)
	exp := 0
	for math.Abs(size) >= 1024 && exp < len(units)-1 {
		size /= 1024
		exp++
	}
	return strconv.FormatFloat(size, 'f', max(precision, 0), 64) + " " + units[exp]
}
