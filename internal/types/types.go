package types

import (
	"fmt"
	"time"
)

// Tier is an ordered sensitivity classification, lowest to highest.
type Tier string

const (
	TierC1 Tier = "C1"
	TierC2 Tier = "C2"
	TierC3 Tier = "C3"
	TierC4 Tier = "C4"
)

var tierRank = map[Tier]int{TierC1: 1, TierC2: 2, TierC3: 3, TierC4: 4}

// Rank returns the numeric position of the tier (1 = lowest). Unknown tiers
// rank as the highest so unclassified data is never under-protected.
func (t Tier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return tierRank[TierC4]
}

// Valid reports whether t is one of the configured tiers.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Tiers lists the configured tiers from lowest to highest.
func Tiers() []Tier {
	return []Tier{TierC1, TierC2, TierC3, TierC4}
}

// Action is the policy decision applied to a detected entity.
type Action string

const (
	ActionAllow  Action = "allow"
	ActionMask   Action = "mask"
	ActionRedact Action = "redact"
)

// Span is a half-open [Start, End) byte range in a content unit.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether the two ranges intersect.
func (s Span) Overlaps(o Span) bool {
	return !(s.End <= o.Start || o.End <= s.Start)
}

// Len returns the span width.
func (s Span) Len() int { return s.End - s.Start }

// Candidate is a single detector's proposal for a sensitive occurrence.
// Immutable once emitted.
type Candidate struct {
	Label      string  `json:"label"`
	Span       Span    `json:"span"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Detector   string  `json:"detector"` // detector ID, e.g. "iban"
	RuleID     string  `json:"rule_id"`
	Tier       Tier    `json:"tier"`
	Validated  bool    `json:"validated"`
}

// Entity is the fused result covering one logical occurrence. Spans of
// distinct entities in one operation never overlap. All offsets refer to the
// original content, not the redacted output.
type Entity struct {
	Label         string   `json:"label"`
	Span          Span     `json:"span"`
	Value         string   `json:"-"` // raw value, never serialized
	Confidence    float64  `json:"confidence"`
	Tier          Tier     `json:"tier"`
	Detectors     []string `json:"detectors"`
	RuleID        string   `json:"rule_id"`
	Validated     bool     `json:"validated"`
	ExternalScore *float64 `json:"external_score,omitempty"` // nil when no external contribution

	// Filled in by the orchestrator.
	Action      Action `json:"action,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	MaskPreview string `json:"mask_preview,omitempty"`
	Coordinate  string `json:"coordinate,omitempty"` // structural address (e.g. cell) when applicable
}

// ScrubOperation is the immutable record of one scrub run.
type ScrubOperation struct {
	OperationID     string    `json:"operation_id"`
	Timestamp       time.Time `json:"timestamp"`
	Actor           string    `json:"actor"`
	SessionID       string    `json:"session_id"`
	RequestedTier   Tier      `json:"requested_tier"`
	OriginalHash    string    `json:"original_hash"`
	ScrubbedHash    string    `json:"scrubbed_hash"`
	Entities        []Entity  `json:"entities"`
	ManifestVersion string    `json:"manifest_version"`
	Degraded        bool      `json:"degraded,omitempty"`    // external model unavailable, rule-only confidences
	Receiptless     bool      `json:"receiptless,omitempty"` // opt-in irreversible mode
}

// Selection names the scope of a reversal: everything, or specific identifiers.
type Selection struct {
	Full        bool
	Identifiers []string
}

// DeScrubRequest asks for authorized restoration from a stored receipt.
// Ephemeral; only its resulting audit entry persists.
type DeScrubRequest struct {
	OperationID   string
	Actor         string
	Clearance     Tier
	Justification string
	Selection     Selection
}

// Outcome is the terminal result of an audited operation.
type Outcome string

const (
	OutcomeScrubbed Outcome = "scrubbed"
	OutcomeGranted  Outcome = "granted"
	OutcomeDenied   Outcome = "denied"
)

// MaxTier returns the highest tier among the given entities, or C1 when the
// slice is empty.
func MaxTier(entities []Entity) Tier {
	max := TierC1
	for _, e := range entities {
		if e.Tier.Rank() > max.Rank() {
			max = e.Tier
		}
	}
	return max
}

// ParseTier validates a tier string.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}
