// Package normalize turns the storefront's locale-variant date and price
// strings into canonical values. Unparsable input is a normal miss, not an
// error; callers drop the row and move on.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Date particles used by the CJK storefronts ("2025년 11월 3일",
	// "2025. 11. 3.") all collapse to dashes before parsing.
	datePartRe = regexp.MustCompile(`[년월일.\s]+`)

	// Everything that is not a digit or a decimal point is noise in a
	// price label: currency symbols, grouping commas, whitespace.
	priceNoiseRe = regexp.MustCompile(`[^\d.]`)
)

// ParseDate tries the three release-date families the store emits, in
// order: CJK/dotted numeric, "Jan 2, 2006", "2 Jan 2006". The second
// return is false when none match.
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	clean := strings.Trim(datePartRe.ReplaceAllString(text, "-"), "-")
	if t, err := time.Parse("2006-1-2", clean); err == nil {
		return t, true
	}

	noComma := strings.ReplaceAll(text, ",", "")
	if t, err := time.Parse("Jan 2 2006", noComma); err == nil {
		return t, true
	}
	if t, err := time.Parse("2 Jan 2006", noComma); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// ParsePrice extracts the numeric amount from a price label. Free items
// and labels with no digits yield (0, symbol+"0"). A nonzero amount keeps
// the original trimmed text as its display string; the source already
// carries the right regional symbol and grouping.
func ParsePrice(text, symbol string) (float64, string) {
	trimmed := strings.TrimSpace(text)
	zero := symbol + "0"

	if strings.Contains(trimmed, "Free") || strings.Contains(trimmed, "무료") {
		return 0, zero
	}

	clean := priceNoiseRe.ReplaceAllString(trimmed, "")
	if clean == "" {
		return 0, zero
	}

	// Locales that group thousands with dots leave several of them
	// behind. A real decimal point is never repeated, so more than one
	// dot means they are all grouping separators.
	if strings.Count(clean, ".") > 1 {
		clean = strings.ReplaceAll(clean, ".", "")
	}

	val, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, zero
	}

	return val, trimmed
}

// DaysBetween returns whole calendar days from release to today,
// ignoring the time of day on either side. Negative means future-dated.
func DaysBetween(released, today time.Time) int {
	from := time.Date(released.Year(), released.Month(), released.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
