package detectors

import "github.com/scrubward/scrubward/internal/types"

// Detector proposes candidate entities from one content unit.
type Detector func(content string) []types.Candidate

var all = []Detector{
	Email, Phone, Date, VATNumber, IBAN, PAN, NationalRegisterNumber,
}

// RunAll executes every registered detector over the content and returns the
// deduplicated union of candidates.
func RunAll(content string) []types.Candidate {
	var out []types.Candidate
	for _, d := range all {
		out = append(out, d(content)...)
	}
	return dedupe(out)
}

// All returns the registered detectors for callers that want to schedule
// them individually (e.g. concurrently).
func All() []Detector {
	out := make([]Detector, len(all))
	copy(out, all)
	return out
}

// IDs lists the detector IDs in registration order.
func IDs() []string {
	return []string{"email", "phone", "date", "vat", "iban", "pan", "nrn"}
}

// labelTiers is the intrinsic sensitivity classification per label. Fusion
// uses it to classify candidates arriving from the external model.
var labelTiers = map[string]types.Tier{
	"EMAIL": types.TierC2,
	"PHONE": types.TierC2,
	"DATE":  types.TierC2,
	"VAT":   types.TierC3,
	"IBAN":  types.TierC4,
	"PAN":   types.TierC4,
	"NRN":   types.TierC4,
}

// TierOf returns the intrinsic tier for a label. Unknown labels classify to
// the highest tier so fusion never under-protects model output.
func TierOf(label string) types.Tier {
	if t, ok := labelTiers[label]; ok {
		return t
	}
	return types.TierC4
}

// Labels lists the known labels.
func Labels() []string {
	return []string{"EMAIL", "PHONE", "DATE", "VAT", "IBAN", "PAN", "NRN"}
}

func dedupe(cands []types.Candidate) []types.Candidate {
	seen := make(map[types.Candidate]bool, len(cands))
	var result []types.Candidate
	for _, c := range cands {
		if !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	return result
}
