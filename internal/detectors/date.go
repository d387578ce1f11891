package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

var reDate = regexp.MustCompile(`\b(?:[0-9]{4}[-/][0-9]{2}[-/][0-9]{2}|[0-9]{2}[-/][0-9]{2}[-/][0-9]{4})\b`)

// Date matches ISO (yyyy-mm-dd) and European (dd-mm-yyyy) calendar dates.
// Shapes that parse as no real date are kept at reduced, unvalidated
// confidence; see ruleValidators.
func Date(content string) []types.Candidate {
	return findPattern(content, reDate, rule{
		label: "DATE", detector: "date", ruleID: "DATE_iso_eu",
		tier: types.TierC2, conf: 0.90,
	})
}
