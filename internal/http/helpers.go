package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fleetlease/internal/core"
)

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.Date{Time: parsedTime}, nil
}

// formatDollars formats cents as a dollar currency string (e.g., "$1,234.56").
func formatDollars(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	dollars := cents / 100
	rem := cents % 100
	s := groupThousands(dollars) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		return "-$" + s
	}
	return "$" + s
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// percentOf returns part as a rounded percentage of total, clamped to [0,100].
func percentOf(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	pct := (part*100 + total/2) / total
	if pct > 100 {
		pct = 100
	}
	return pct
}
