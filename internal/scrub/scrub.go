// Package scrub drives the detection → fusion → policy → substitution →
// receipt → audit pipeline over one payload.
package scrub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/scrubward/scrubward/internal/detectors"
	"github.com/scrubward/scrubward/internal/fusion"
	"github.com/scrubward/scrubward/internal/ident"
	"github.com/scrubward/scrubward/internal/ledger"
	"github.com/scrubward/scrubward/internal/policy"
	"github.com/scrubward/scrubward/internal/receipts"
	"github.com/scrubward/scrubward/internal/recognizer"
	"github.com/scrubward/scrubward/internal/types"
	"golang.org/x/sync/errgroup"
)

// ErrValidation rejects a malformed request before detection runs. No audit
// entry is written for rejected requests.
var ErrValidation = errors.New("invalid scrub request")

// State names a stage of the pipeline, used for logging and failure context.
type State string

const (
	StateReceived       State = "received"
	StateDetecting      State = "detecting"
	StateFusing         State = "fusing"
	StatePolicyApplying State = "policy-applying"
	StateSubstituting   State = "substituting"
	StatePersisting     State = "persisting"
	StateLogged         State = "logged"
	StateFailed         State = "failed"
)

// Orchestrator wires the pipeline components. Construct once, share across
// requests; all fields are read-only after construction.
type Orchestrator struct {
	Policy        *policy.Engine
	Ident         *ident.Generator
	Receipts      *receipts.Store
	Ledger        *ledger.Ledger
	Recognizer    recognizer.Recognizer
	FusionMode    fusion.Mode
	LabelPriority []string
	// ModelTimeout bounds the external model call. The pipeline proceeds
	// rule-only once it elapses.
	ModelTimeout time.Duration
	Log          *log.Logger
}

// Request describes one scrub payload.
type Request struct {
	Content   string
	Tier      types.Tier
	Actor     string
	SessionID string
	// Receiptless opts into irreversible redaction. Off by default; the
	// resulting audit entry is marked.
	Receiptless bool
}

// Result is the scrubbed artifact plus its immutable operation record.
type Result struct {
	Scrubbed  string
	Operation types.ScrubOperation
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Log != nil {
		return o.Log
	}
	return log.Default()
}

func (o *Orchestrator) recognize(ctx context.Context, content string) ([]recognizer.Candidate, bool) {
	rec := o.Recognizer
	if rec == nil {
		rec = recognizer.Noop{}
	}
	timeout := o.ModelTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ext, err := rec.Recognize(cctx, content)
	if err != nil {
		// Degradation is observable but never fatal: the pipeline continues
		// with rule-only confidence.
		o.logger().Warn("external model unavailable, continuing rule-only", "err", err)
		return nil, true
	}
	return ext, false
}

// detect runs every registered detector concurrently over one unit.
func detect(ctx context.Context, content string) []types.Candidate {
	ds := detectors.All()
	results := make([][]types.Candidate, len(ds))
	g, _ := errgroup.WithContext(ctx)
	for i, d := range ds {
		i, d := i, d
		g.Go(func() error {
			results[i] = d(content)
			return nil
		})
	}
	_ = g.Wait() // detectors are pure and never error
	var all []types.Candidate
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// unitResult is the pipeline outcome for one addressable content unit.
type unitResult struct {
	scrubbed string
	entities []types.Entity
	entries  []receipts.Entry // OutSpan relative to the scrubbed unit
	degraded bool
}

// processUnit runs detection, fusion, policy and substitution for one unit.
func (o *Orchestrator) processUnit(ctx context.Context, content, coordinate string) (unitResult, error) {
	cands := detect(ctx, content)
	ext, degraded := o.recognize(ctx, content)

	entities := fusion.Fuse(content, cands, ext, fusion.Options{
		Mode:          o.FusionMode,
		LabelPriority: o.LabelPriority,
		TierOf:        detectors.TierOf,
	})

	manifest := o.Policy.Active()
	for i := range entities {
		e := &entities[i]
		e.Coordinate = coordinate
		e.Action = manifest.ActionFor(e.Label, e.Tier)
		if e.Action == types.ActionAllow {
			continue
		}
		e.Identifier = o.Ident.Identifier(e.Tier, e.Label, e.Value)
		if e.Action == types.ActionMask {
			e.MaskPreview = maskValue(e.Value)
		}
	}

	scrubbed, entries := substitute(content, entities)
	for i := range entries {
		entries[i].Coordinate = coordinate
	}
	return unitResult{scrubbed: scrubbed, entities: entities, entries: entries, degraded: degraded}, nil
}

// substitute replaces mask/redact spans walking the original content in
// ascending span order. Fused spans never overlap, so a single pass with a
// running output offset is exact; untouched bytes are copied verbatim.
// Recorded entity spans stay in original-content offsets; the receipt's
// output spans are computed here against the growing output.
func substitute(content string, entities []types.Entity) (string, []receipts.Entry) {
	out := make([]byte, 0, len(content))
	var entries []receipts.Entry
	pos := 0
	for _, e := range entities {
		if e.Action == types.ActionAllow {
			continue
		}
		out = append(out, content[pos:e.Span.Start]...)
		var repl string
		if e.Action == types.ActionMask {
			repl = e.MaskPreview
		} else {
			repl = e.Identifier
		}
		outStart := len(out)
		out = append(out, repl...)
		entries = append(entries, receipts.Entry{
			Identifier: e.Identifier,
			Label:      e.Label,
			Tier:       e.Tier,
			Action:     e.Action,
			Confidence: e.Confidence,
			Span:       e.Span,
			OutSpan:    types.Span{Start: outStart, End: len(out)},
			Value:      e.Value,
		})
		pos = e.Span.End
	}
	out = append(out, content[pos:]...)
	return string(out), entries
}

// Scrub runs the full pipeline over one flat text payload: it produces the
// redacted output, persists the receipt, and appends exactly one audit
// entry. Receipt persistence happens before the audit append; if the append
// fails the receipt is discarded and the operation reported failed.
func (o *Orchestrator) Scrub(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	started := time.Now()

	unit, err := o.processUnit(ctx, req.Content, "")
	if err != nil {
		return nil, err
	}

	op := o.newOperation(req, unit)
	op.OriginalHash = sha256Hex(req.Content)
	op.ScrubbedHash = sha256Hex(unit.scrubbed)

	if err := o.persistAndLog(req, op, unit.scrubbed, unit.entries); err != nil {
		return nil, err
	}
	o.logger().Info("scrub complete",
		"operation", op.OperationID,
		"entities", len(op.Entities),
		"degraded", op.Degraded,
		"took", time.Since(started))
	return &Result{Scrubbed: unit.scrubbed, Operation: op}, nil
}

func validate(req Request) error {
	if !req.Tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", ErrValidation, req.Tier)
	}
	if req.Actor == "" {
		return fmt.Errorf("%w: actor required", ErrValidation)
	}
	return nil
}

func (o *Orchestrator) newOperation(req Request, unit unitResult) types.ScrubOperation {
	sid := req.SessionID
	if sid == "" {
		sid = uuid.NewString()
	}
	entities := unit.entities
	if entities == nil {
		entities = []types.Entity{}
	}
	return types.ScrubOperation{
		OperationID:     uuid.NewString(),
		Timestamp:       time.Now().UTC(),
		Actor:           req.Actor,
		SessionID:       sid,
		RequestedTier:   req.Tier,
		Entities:        entities,
		ManifestVersion: o.Policy.Active().Version(),
		Degraded:        unit.degraded,
		Receiptless:     req.Receiptless,
	}
}

// persistAndLog enforces the atomicity contract: receipt write happens
// before the audit append, and a receipt orphaned by a failed append is
// rolled back rather than left redeemable.
func (o *Orchestrator) persistAndLog(req Request, op types.ScrubOperation, scrubbed string, entries []receipts.Entry) error {
	receiptWritten := false
	if !req.Receiptless {
		if o.Receipts == nil {
			return fmt.Errorf("%w: no receipt store configured", receipts.ErrEncryptionUnavailable)
		}
		r := &receipts.Receipt{
			OperationID:     op.OperationID,
			CreatedAt:       op.Timestamp,
			OriginalHash:    op.OriginalHash,
			ScrubbedHash:    op.ScrubbedHash,
			RequestedTier:   op.RequestedTier,
			ManifestVersion: op.ManifestVersion,
			Scrubbed:        scrubbed,
			PlaceholderMap:  placeholderMap(entries),
			Entries:         entries,
		}
		if err := o.Receipts.Put(r); err != nil {
			return err
		}
		receiptWritten = true
	}

	entry := auditEntry(op)
	if _, err := o.Ledger.Append(entry); err != nil {
		if receiptWritten {
			if derr := o.Receipts.Discard(op.OperationID); derr != nil {
				o.logger().Error("orphaned receipt could not be discarded",
					"operation", op.OperationID, "err", derr)
			}
		}
		return err
	}
	return nil
}

func placeholderMap(entries []receipts.Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Action == types.ActionMask {
			m[e.Identifier] = maskValue(e.Value)
		} else {
			m[e.Identifier] = e.Identifier
		}
	}
	return m
}

func auditEntry(op types.ScrubOperation) ledger.Entry {
	actions := make([]string, 0, len(op.Entities))
	sums := make([]ledger.EntitySummary, 0, len(op.Entities))
	confs := make([]float64, 0, len(op.Entities))
	for _, e := range op.Entities {
		actions = append(actions, string(e.Action))
		sums = append(sums, ledger.EntitySummary{
			Identifier: e.Identifier,
			Label:      e.Label,
			Tier:       e.Tier,
			Confidence: e.Confidence,
		})
		confs = append(confs, e.Confidence)
	}
	return ledger.Entry{
		TS:           op.Timestamp.Format(time.RFC3339),
		Actor:        op.Actor,
		SessionID:    op.SessionID,
		OperationID:  op.OperationID,
		OriginalHash: op.OriginalHash,
		ScrubbedHash: op.ScrubbedHash,
		Actions:      actions,
		Entities:     sums,
		Confidences:  confs,
		Outcome:      types.OutcomeScrubbed,
		Degraded:     op.Degraded,
		Receiptless:  op.Receiptless,
		Summary:      ledger.Summarize(sums, op.RequestedTier),
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
