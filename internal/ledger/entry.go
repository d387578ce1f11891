package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/scrubward/scrubward/internal/types"
)

// Genesis is the well-known prev_hash of the first entry in every chain.
const Genesis = "0000000000000000000000000000000000000000000000000000000000000000"

// EntitySummary is the audited view of one entity: identifier, label, tier
// and confidence. Raw values never appear in the ledger.
type EntitySummary struct {
	Identifier string     `json:"identifier"`
	Label      string     `json:"label"`
	Tier       types.Tier `json:"tier"`
	Confidence float64    `json:"confidence"`
}

// Summary aggregates an entry's entities by label and tier.
type Summary struct {
	Total   int            `json:"entities_total"`
	Masked  int            `json:"masked"`
	ByLabel map[string]int `json:"by_label"`
	ByTier  map[string]int `json:"by_tier"`
}

// Entry is one hash-chained audit record. All fields are structs and
// primitives (no map[string]any in the hashed payload) so json.Marshal field
// order is deterministic and hashes are reproducible.
type Entry struct {
	TS            string          `json:"ts"`
	Actor         string          `json:"actor"`
	SessionID     string          `json:"session_id"`
	OperationID   string          `json:"operation_id"`
	OriginalHash  string          `json:"original_hash"`
	ScrubbedHash  string          `json:"scrubbed_hash"`
	Actions       []string        `json:"actions"`
	Entities      []EntitySummary `json:"entities"`
	Confidences   []float64       `json:"confidences"`
	Justification string          `json:"justification,omitempty"`
	Outcome       types.Outcome   `json:"outcome"`
	Degraded      bool            `json:"degraded,omitempty"`
	Receiptless   bool            `json:"receiptless,omitempty"`
	Summary       *Summary        `json:"summary,omitempty"`
	PrevHash      string          `json:"prev_hash"`
	CurrHash      string          `json:"curr_hash"`
}

// canon serializes the hashed payload: every field except the chain hashes
// themselves.
func (e Entry) canon() []byte {
	shadow := e
	shadow.PrevHash = ""
	shadow.CurrHash = ""
	b, _ := json.Marshal(shadow)
	return b
}

// chainHash computes the entry hash bound to its predecessor.
func chainHash(prev string, e Entry) string {
	h := sha256.New()
	h.Write([]byte(prev))
	h.Write([]byte("\n"))
	h.Write(e.canon())
	return hex.EncodeToString(h.Sum(nil))
}

// Summarize builds the aggregate view of the given entities. masked counts
// entities above the supplied clearance.
func Summarize(entities []EntitySummary, clearance types.Tier) *Summary {
	s := &Summary{ByLabel: map[string]int{}, ByTier: map[string]int{}}
	for _, e := range entities {
		s.Total++
		s.ByLabel[e.Label]++
		s.ByTier[string(e.Tier)]++
		if e.Tier.Rank() > clearance.Rank() {
			s.Masked++
		}
	}
	return s
}
