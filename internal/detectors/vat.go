package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

var reVAT = regexp.MustCompile(`\b[A-Z]{2}[0-9]{8,12}\b`)

// VATNumber matches EU VAT identifiers (country prefix plus 8-12 digits).
func VATNumber(content string) []types.Candidate {
	return findPattern(content, reVAT, rule{
		label: "VAT", detector: "vat", ruleID: "VAT_eu",
		tier: types.TierC3, conf: 0.92,
	})
}
