package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

// Formatted (yy.mm.dd-xxx.cc) or bare 11-digit national register numbers.
var reNRN = regexp.MustCompile(`\b(?:[0-9]{2}\.[0-9]{2}\.[0-9]{2}-[0-9]{3}\.[0-9]{2}|[0-9]{11})\b`)

// NationalRegisterNumber matches Belgian national register numbers. Matches
// without a valid mod-97 check pair are dropped.
func NationalRegisterNumber(content string) []types.Candidate {
	return findPattern(content, reNRN, rule{
		label: "NRN", detector: "nrn", ruleID: "NRN_be",
		tier: types.TierC4, conf: 0.97,
	})
}
