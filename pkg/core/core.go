package core

import (
	"context"
	"path/filepath"

	"github.com/scrubward/scrubward/internal/descrub"
	"github.com/scrubward/scrubward/internal/fusion"
	"github.com/scrubward/scrubward/internal/ident"
	"github.com/scrubward/scrubward/internal/ledger"
	"github.com/scrubward/scrubward/internal/policy"
	"github.com/scrubward/scrubward/internal/receipts"
	"github.com/scrubward/scrubward/internal/recognizer"
	"github.com/scrubward/scrubward/internal/scrub"
	"github.com/scrubward/scrubward/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type (
	Tier           = types.Tier
	Entity         = types.Entity
	Outcome        = types.Outcome
	Selection      = types.Selection
	ScrubRequest   = scrub.Request
	ScrubResult    = scrub.Result
	DeScrubRequest = types.DeScrubRequest
	DeScrubResult  = descrub.Result
	AuditEntry     = ledger.Entry
)

const (
	TierC1 = types.TierC1
	TierC2 = types.TierC2
	TierC3 = types.TierC3
	TierC4 = types.TierC4

	OutcomeScrubbed = types.OutcomeScrubbed
	OutcomeGranted  = types.OutcomeGranted
	OutcomeDenied   = types.OutcomeDenied
)

// Config wires one embedded pipeline. Salt and Key are mandatory; DataDir
// defaults to "data" and holds receipts and the audit chain.
type Config struct {
	Salt       []byte
	Key        []byte
	DataDir    string
	PolicyDir  string
	FusionMode string
	Recognizer recognizer.Recognizer
}

// Pipeline is the embedded equivalent of the CLI: scrub, descrub, and audit
// verification against one shared data directory.
type Pipeline struct {
	orch    *scrub.Orchestrator
	reverse *descrub.Engine
	ledger  *ledger.Ledger
}

// NewPipeline validates cfg and opens every component.
func NewPipeline(cfg Config) (*Pipeline, error) {
	gen, err := ident.New(cfg.Salt)
	if err != nil {
		return nil, err
	}
	base := cfg.DataDir
	if base == "" {
		base = "data"
	}
	store, err := receipts.Open(filepath.Join(base, "receipts"), cfg.Key)
	if err != nil {
		return nil, err
	}
	led, err := ledger.Open(filepath.Join(base, "audit"))
	if err != nil {
		return nil, err
	}
	pol, err := policy.NewEngine(cfg.PolicyDir)
	if err != nil {
		led.Close()
		return nil, err
	}
	mode, err := fusion.ParseMode(cfg.FusionMode)
	if err != nil {
		led.Close()
		return nil, err
	}
	rec := cfg.Recognizer
	if rec == nil {
		rec = recognizer.Noop{}
	}
	orch := &scrub.Orchestrator{
		Policy:     pol,
		Ident:      gen,
		Receipts:   store,
		Ledger:     led,
		Recognizer: rec,
		FusionMode: mode,
	}
	return &Pipeline{
		orch:    orch,
		reverse: &descrub.Engine{Receipts: store, Ledger: led},
		ledger:  led,
	}, nil
}

// Close releases the audit ledger.
func (p *Pipeline) Close() error { return p.ledger.Close() }

// Scrub is the stable entrypoint for other programs.
func (p *Pipeline) Scrub(ctx context.Context, req ScrubRequest) (*ScrubResult, error) {
	return p.orch.Scrub(ctx, req)
}

// DeScrub restores receipt-backed values for a sufficiently cleared actor.
func (p *Pipeline) DeScrub(ctx context.Context, req DeScrubRequest) (*DeScrubResult, error) {
	return p.reverse.DeScrub(ctx, req)
}

// VerifyAudit replays the hash chain. It returns the zero-based position of
// the first broken entry, or -1 when the chain is intact.
func (p *Pipeline) VerifyAudit() (int, error) { return p.ledger.Verify() }

// AuditTail returns up to n recent audit entries, newest first.
func (p *Pipeline) AuditTail(n int) ([]AuditEntry, error) { return p.ledger.Tail(n) }
