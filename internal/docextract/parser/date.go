package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// datePattern matches day-first (05.03.2025) and year-first (2025-03-05)
// tokens with '.', '/' or '-' separators.
var datePattern = regexp.MustCompile(
	`\b(?:(\d{1,2})[./-](\d{1,2})[./-](\d{4})|(\d{4})[./-](\d{1,2})[./-](\d{1,2}))\b`)

// firstDate normalizes the first date-like token of text to YYYY-MM-DD.
// Later dates are never consulted, even when the first one is not a real
// calendar date.
func firstDate(text string) (string, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	var year, month, day string
	if m[1] != "" {
		day, month, year = m[1], m[2], m[3]
	} else {
		year, month, day = m[4], m[5], m[6]
	}
	return normalizeDate(year, month, day)
}

func normalizeDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return "", false
	}

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
}
