package scrubward

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/scrubward/scrubward/internal/config"
	"github.com/scrubward/scrubward/internal/descrub"
	"github.com/scrubward/scrubward/internal/fusion"
	"github.com/scrubward/scrubward/internal/ident"
	"github.com/scrubward/scrubward/internal/ledger"
	"github.com/scrubward/scrubward/internal/policy"
	"github.com/scrubward/scrubward/internal/receipts"
	"github.com/scrubward/scrubward/internal/recognizer"
	"github.com/scrubward/scrubward/internal/scrub"
)

// app holds the wired pipeline for one CLI invocation.
type app struct {
	cfg     config.FileConfig
	orch    *scrub.Orchestrator
	reverse *descrub.Engine
	ledger  *ledger.Ledger
	log     *log.Logger
}

// newApp loads configuration and secrets and wires every pipeline component.
// Receipt encryption and the identifier salt are mandatory; without them no
// redaction happens at all.
func newApp() (*app, error) {
	logger := newLogger()

	cfg, err := config.LoadLocal(".")
	if err != nil {
		cfg = config.FileConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	secrets := config.LoadSecrets()

	gen, err := ident.New(secrets.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: set SCRUBWARD_SALT", err)
	}

	base := flagData
	if base == "" {
		base = config.DefaultDataDir()
	}
	store, err := receipts.Open(cfg.ReceiptsDirOr(base), secrets.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: set SCRUBWARD_KEY to a base64 32-byte key", err)
	}
	led, err := ledger.Open(cfg.AuditDirOr(base))
	if err != nil {
		return nil, err
	}

	policyDir := flagPolicy
	if policyDir == "" && cfg.PolicyDir != nil {
		policyDir = *cfg.PolicyDir
	}
	pol, err := policy.NewEngine(policyDir)
	if err != nil {
		return nil, err
	}

	mode := fusion.Mode{}
	if cfg.FusionMode != nil {
		mode, err = fusion.ParseMode(*cfg.FusionMode)
		if err != nil {
			return nil, err
		}
	}

	var rec recognizer.Recognizer = recognizer.Noop{}
	timeout := 2 * time.Second
	if cfg.IsModelEnabled() {
		name := "default"
		if cfg.ExternalModel.Name != nil {
			name = *cfg.ExternalModel.Name
		}
		if s := cfg.ModelTimeoutString(); s != "" {
			if d, perr := time.ParseDuration(s); perr == nil {
				timeout = d
			}
		}
		rec = recognizer.NewHTTP(*cfg.ExternalModel.Endpoint, name, timeout)
	}

	orch := &scrub.Orchestrator{
		Policy:        pol,
		Ident:         gen,
		Receipts:      store,
		Ledger:        led,
		Recognizer:    rec,
		FusionMode:    mode,
		LabelPriority: cfg.LabelPriority,
		ModelTimeout:  timeout,
		Log:           logger,
	}
	rev := &descrub.Engine{Receipts: store, Ledger: led, Log: logger}
	return &app{cfg: cfg, orch: orch, reverse: rev, ledger: led, log: logger}, nil
}

func (a *app) close() {
	if a.ledger != nil {
		_ = a.ledger.Close()
	}
}

// newAuditApp wires only the ledger, for audit inspection commands that must
// work without salts or keys configured.
func newAuditApp() (*app, error) {
	cfg, err := config.LoadLocal(".")
	if err != nil {
		cfg = config.FileConfig{}
	}
	base := flagData
	if base == "" {
		base = config.DefaultDataDir()
	}
	led, err := ledger.Open(cfg.AuditDirOr(base))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, ledger: led, log: newLogger()}, nil
}
