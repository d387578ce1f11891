package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

// Country code, two check digits, then 11-30 alphanumerics in optional
// groups of four. Covers both compact and display (space-grouped) forms.
var reIBAN = regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,3})?\b`)

// IBAN matches international bank account numbers. Matches failing the
// ISO 13616 mod-97 checksum are dropped.
func IBAN(content string) []types.Candidate {
	return findPattern(content, reIBAN, rule{
		label: "IBAN", detector: "iban", ruleID: "IBAN_basic",
		tier: types.TierC4, conf: 0.95,
	})
}
