package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

// rule bundles the constants a shape-based detector emits with each match.
type rule struct {
	label    string
	detector string
	ruleID   string
	tier     types.Tier
	conf     float64
}

// findPattern emits one candidate per regex match, then runs the rule's
// validator (if any). Confidence is a fixed rule constant so detection stays
// deterministic across runs.
func findPattern(content string, re *regexp.Regexp, r rule) []types.Candidate {
	var out []types.Candidate
	for _, loc := range re.FindAllStringIndex(content, -1) {
		c := types.Candidate{
			Label:      r.label,
			Span:       types.Span{Start: loc[0], End: loc[1]},
			Value:      content[loc[0]:loc[1]],
			Confidence: r.conf,
			Detector:   r.detector,
			RuleID:     r.ruleID,
			Tier:       r.tier,
			Validated:  true,
		}
		c, ok := applyValidator(c)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
