package detectors

import (
	"github.com/scrubward/scrubward/internal/types"
	v "github.com/scrubward/scrubward/internal/validate"
)

// EnableValidators controls whether rule-specific validity checks run
// post-match. Disabling it turns every detector into a shape-only matcher.
var EnableValidators = true

type candidateValidator func(c types.Candidate) (types.Candidate, bool)

// ruleValidators maps rule IDs to their domain validity check. A validator
// may drop the candidate, or keep it with reduced confidence and the
// validated flag cleared.
var ruleValidators = map[string]candidateValidator{
	// Checksum-bearing labels drop shape-only matches outright: a 16-digit
	// number failing its check digit must never surface as a card number.
	"IBAN_basic": func(c types.Candidate) (types.Candidate, bool) {
		return c, v.IBANChecksum(c.Value)
	},
	"PAN_luhn": func(c types.Candidate) (types.Candidate, bool) {
		return c, v.Luhn(c.Value)
	},
	"NRN_be": func(c types.Candidate) (types.Candidate, bool) {
		return c, v.BelgianNRN(c.Value)
	},
	// Date shapes that parse as no calendar date stay visible to fusion but
	// at reduced confidence and unvalidated.
	"DATE_iso_eu": func(c types.Candidate) (types.Candidate, bool) {
		if v.DateLike(c.Value) {
			return c, true
		}
		c.Confidence = c.Confidence / 2
		c.Validated = false
		return c, true
	},
	"VAT_eu": func(c types.Candidate) (types.Candidate, bool) {
		return c, v.LengthBetween(c.Value, 10, 14)
	},
}

func applyValidator(c types.Candidate) (types.Candidate, bool) {
	if !EnableValidators {
		return c, true
	}
	if vfn, ok := ruleValidators[c.RuleID]; ok {
		return vfn(c)
	}
	return c, true
}
