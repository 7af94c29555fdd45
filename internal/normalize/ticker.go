package normalize

import "strings"

// NormalizeTicker trims, uppercases and drops every character outside A-Z
//
// This is lossy: "BRK.B" becomes "BRKB" and preferred-share suffixes
// collapse onto the common ticker. Existing screen and journal data is keyed
// this way, so the behavior is kept
func NormalizeTicker(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
