package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

// 13-19 digits with optional single space/dash separators.
var rePAN = regexp.MustCompile(`\b[0-9](?:[ \-]?[0-9]){12,18}\b`)

// PAN matches payment card numbers. Matches failing the Luhn check digit are
// dropped.
func PAN(content string) []types.Candidate {
	return findPattern(content, rePAN, rule{
		label: "PAN", detector: "pan", ruleID: "PAN_luhn",
		tier: types.TierC4, conf: 0.99,
	})
}
