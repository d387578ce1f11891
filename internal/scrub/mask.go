package scrub

import "strings"

// separators survive masking so the value keeps its recognizable format.
const separators = " @.+-/():"

// maskValue obscures a value in place: length and separator positions are
// preserved, every other rune becomes '*'.
func maskValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(separators, r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('*')
		}
	}
	return b.String()
}
