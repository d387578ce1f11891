package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

var reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Email matches RFC-ish mailbox addresses.
func Email(content string) []types.Candidate {
	return findPattern(content, reEmail, rule{
		label: "EMAIL", detector: "email", ruleID: "EMAIL_basic",
		tier: types.TierC2, conf: 0.98,
	})
}
