package detectors

import (
	"regexp"

	"github.com/scrubward/scrubward/internal/types"
)

// International format only. Bare national numbers collide with too many
// other digit runs (card numbers, register numbers) to match on shape alone.
var rePhone = regexp.MustCompile(`\+[1-9][0-9]{0,2}[ .\-]?[0-9](?:[ .\-]?[0-9]){6,11}`)

// Phone matches E.164-style international phone numbers.
func Phone(content string) []types.Candidate {
	return findPattern(content, rePhone, rule{
		label: "PHONE", detector: "phone", ruleID: "PHONE_e164",
		tier: types.TierC2, conf: 0.98,
	})
}
