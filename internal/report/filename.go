package report

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks so "Müller" becomes "Muller".
var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Filename builds the deterministic export name
// {retailer}_{location}_{YYYY-MM-DD}.xlsx. Identical inputs always
// produce identical bytes.
func Filename(retailer, location string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s.xlsx",
		sanitize(retailer), sanitize(location), date.Format("2006-01-02"))
}

// sanitize makes a path-safe filename component: diacritics folded,
// spaces collapsed to single underscores, anything outside
// [A-Za-z0-9._-] dropped. Empty input becomes "unknown".
func sanitize(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r == ' ' || r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	out := strings.Trim(b.String(), "_.")
	if out == "" {
		return "unknown"
	}
	return out
}
