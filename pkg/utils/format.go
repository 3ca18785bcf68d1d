package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCash renders a dollar amount the way the game HUD does.
//
// Examples:
//   - 1_640_000 -> "$1.6M"
//   - 350_000   -> "$350K"
//   - 999       -> "$999"
//
// Fractions are truncated before formatting.
func FormatCash(amount float64) string {
	v := int64(amount)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, float64(v)/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%s$%.0fK", sign, float64(v)/1_000)
	default:
		return sign + "$" + strconv.FormatInt(v, 10)
	}
}

// FormatTons renders a bunker quantity with thousands separators ("12,500t")
func FormatTons(tons float64) string {
	return GroupThousands(int64(math.Round(tons))) + "t"
}

// GroupThousands inserts commas between digit groups
func GroupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatSession renders the session counter line: "3 departure(s) • +$1.2M"
func FormatSession(departures int, income float64) string {
	return fmt.Sprintf("%d departure(s) • +%s", departures, FormatCash(income))
}
