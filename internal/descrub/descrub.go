// Package descrub authorizes and performs selective or full restoration of
// scrubbed content from a stored receipt. Authorization fails closed, and
// every attempt, granted or denied, appends exactly one audit entry.
package descrub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/scrubward/scrubward/internal/ledger"
	"github.com/scrubward/scrubward/internal/receipts"
	"github.com/scrubward/scrubward/internal/types"
)

// ErrValidation rejects a malformed reversal request before any receipt is
// touched.
var ErrValidation = errors.New("invalid de-scrub request")

// Engine resolves receipts and gates restoration on clearance.
type Engine struct {
	Receipts *receipts.Store
	Ledger   *ledger.Ledger
	Log      *log.Logger
}

// Result is the terminal outcome of one reversal attempt. Content is only
// populated when the outcome is granted.
type Result struct {
	Outcome      types.Outcome
	Content      string
	Restored     []string
	RequiredTier types.Tier
}

func (e *Engine) logger() *log.Logger {
	if e.Log != nil {
		return e.Log
	}
	return log.Default()
}

// DeScrub restores the selected identifiers (or everything, for a full
// selection) from the operation's receipt. Denials are first-class: below
// the required clearance nothing is decrypted, and the denial is audited
// with the supplied justification. Persisted artifacts are never modified;
// the only side effect is the audit entry.
func (e *Engine) DeScrub(ctx context.Context, req types.DeScrubRequest) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	receipt, err := e.Receipts.Get(req.OperationID)
	if err != nil {
		return nil, err
	}

	selected := selectEntries(receipt.Entries, req.Selection)
	if len(selected) == 0 && len(receipt.Entries) > 0 && !req.Selection.Full {
		return nil, fmt.Errorf("%w: no selected identifier exists in receipt %s", ErrValidation, req.OperationID)
	}

	required := requiredTier(selected)
	if req.Clearance.Rank() < required.Rank() {
		if err := e.appendEntry(req, receipt, selected, types.OutcomeDenied); err != nil {
			return nil, err
		}
		e.logger().Warn("de-scrub denied",
			"operation", req.OperationID,
			"actor", req.Actor,
			"clearance", req.Clearance,
			"required", required)
		return &Result{Outcome: types.OutcomeDenied, RequiredTier: required}, nil
	}

	restored, content, err := e.restore(receipt, selected)
	if err != nil {
		return nil, err
	}
	if err := e.appendEntry(req, receipt, selected, types.OutcomeGranted); err != nil {
		return nil, err
	}
	e.logger().Info("de-scrub granted",
		"operation", req.OperationID,
		"actor", req.Actor,
		"restored", len(restored))
	return &Result{
		Outcome:      types.OutcomeGranted,
		Content:      content,
		Restored:     restored,
		RequiredTier: required,
	}, nil
}

func validate(req types.DeScrubRequest) error {
	if req.OperationID == "" {
		return fmt.Errorf("%w: operation id required", ErrValidation)
	}
	if req.Actor == "" {
		return fmt.Errorf("%w: actor required", ErrValidation)
	}
	if !req.Clearance.Valid() {
		return fmt.Errorf("%w: unknown clearance %q", ErrValidation, req.Clearance)
	}
	if req.Justification == "" {
		return fmt.Errorf("%w: justification required", ErrValidation)
	}
	if !req.Selection.Full && len(req.Selection.Identifiers) == 0 {
		return fmt.Errorf("%w: empty selection", ErrValidation)
	}
	return nil
}

func selectEntries(entries []receipts.Entry, sel types.Selection) []receipts.Entry {
	if sel.Full {
		return entries
	}
	wanted := make(map[string]bool, len(sel.Identifiers))
	for _, id := range sel.Identifiers {
		wanted[id] = true
	}
	var out []receipts.Entry
	for _, e := range entries {
		if wanted[e.Identifier] {
			out = append(out, e)
		}
	}
	return out
}

// requiredTier is the highest tier among the selected entries.
func requiredTier(selected []receipts.Entry) types.Tier {
	required := types.TierC1
	for _, e := range selected {
		if e.Tier.Rank() > required.Rank() {
			required = e.Tier
		}
	}
	return required
}

// restore decrypts the selected originals and splices them back into a copy
// of the receipt's scrubbed snapshot at their recorded output spans,
// descending, so earlier offsets stay valid.
func (e *Engine) restore(receipt *receipts.Receipt, selected []receipts.Entry) ([]string, string, error) {
	ordered := make([]receipts.Entry, len(selected))
	copy(ordered, selected)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].OutSpan.Start > ordered[j].OutSpan.Start })

	content := receipt.Scrubbed
	restored := make([]string, 0, len(ordered))
	for _, entry := range ordered {
		plain, err := e.Receipts.Decrypt(entry)
		if err != nil {
			return nil, "", err
		}
		content = content[:entry.OutSpan.Start] + plain + content[entry.OutSpan.End:]
		restored = append(restored, entry.Identifier)
	}
	return restored, content, nil
}

func (e *Engine) appendEntry(req types.DeScrubRequest, receipt *receipts.Receipt, selected []receipts.Entry, outcome types.Outcome) error {
	sums := make([]ledger.EntitySummary, 0, len(selected))
	actions := make([]string, 0, len(selected))
	confs := make([]float64, 0, len(selected))
	for _, s := range selected {
		sums = append(sums, ledger.EntitySummary{
			Identifier: s.Identifier,
			Label:      s.Label,
			Tier:       s.Tier,
			Confidence: s.Confidence,
		})
		actions = append(actions, string(s.Action))
		confs = append(confs, s.Confidence)
	}
	_, err := e.Ledger.Append(ledger.Entry{
		TS:            time.Now().UTC().Format(time.RFC3339),
		Actor:         req.Actor,
		OperationID:   req.OperationID,
		OriginalHash:  receipt.OriginalHash,
		ScrubbedHash:  receipt.ScrubbedHash,
		Actions:       actions,
		Entities:      sums,
		Confidences:   confs,
		Justification: req.Justification,
		Outcome:       outcome,
		Summary:       ledger.Summarize(sums, req.Clearance),
	})
	return err
}
