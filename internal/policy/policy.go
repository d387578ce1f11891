// Package policy maps (label, sensitivity tier) to a scrub action under a
// versioned manifest set. Lookups fail closed: anything unconfigured is
// redacted rather than passed through.
package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/scrubward/scrubward/internal/types"
	"gopkg.in/yaml.v3"
)

// ErrConfig marks a missing or malformed manifest. Operations abort before
// any redaction when policy cannot be resolved.
var ErrConfig = errors.New("policy config")

// LabelRule is one per-label policy entry.
type LabelRule struct {
	Enabled bool         `yaml:"enabled"`
	Action  types.Action `yaml:"action"`
}

// tierManifest is the on-disk YAML shape for one sensitivity tier.
type tierManifest struct {
	Version       string               `yaml:"version"`
	DefaultAction types.Action         `yaml:"default_action"`
	Labels        map[string]LabelRule `yaml:"labels"`
}

// Manifest is an immutable, versioned policy snapshot across all tiers.
type Manifest struct {
	tiers   map[types.Tier]tierManifest
	version string
}

func validAction(a types.Action) bool {
	switch a {
	case types.ActionAllow, types.ActionMask, types.ActionRedact, "":
		return true
	}
	return false
}

// Load reads one manifest file per tier (c1.yml .. c4.yml) from dir. Every
// tier file must exist and parse; a broken policy never half-loads.
func Load(dir string) (*Manifest, error) {
	tiers := make(map[types.Tier]tierManifest, len(types.Tiers()))
	h := xxhash.New()
	var versions []string
	for _, t := range types.Tiers() {
		p := filepath.Join(dir, strings.ToLower(string(t))+".yml")
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, p, err)
		}
		var tm tierManifest
		if err := yaml.Unmarshal(b, &tm); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, p, err)
		}
		if !validAction(tm.DefaultAction) {
			return nil, fmt.Errorf("%w: %s: unknown default action %q", ErrConfig, p, tm.DefaultAction)
		}
		for label, r := range tm.Labels {
			if !validAction(r.Action) {
				return nil, fmt.Errorf("%w: %s: label %s: unknown action %q", ErrConfig, p, label, r.Action)
			}
		}
		tiers[t] = tm
		versions = append(versions, tm.Version)
		_, _ = h.Write(b)
	}
	return &Manifest{tiers: tiers, version: versionString(versions, h.Sum64())}, nil
}

// Default returns the built-in manifest used by deployments without a policy
// directory: every known label redacts at its own tier, default redact.
func Default() *Manifest {
	tiers := make(map[types.Tier]tierManifest, len(types.Tiers()))
	for _, t := range types.Tiers() {
		tiers[t] = tierManifest{Version: "builtin", DefaultAction: types.ActionRedact}
	}
	return &Manifest{tiers: tiers, version: "builtin"}
}

func versionString(versions []string, sum uint64) string {
	uniq := map[string]bool{}
	for _, v := range versions {
		if v != "" {
			uniq[v] = true
		}
	}
	tag := "unversioned"
	if len(uniq) == 1 {
		for v := range uniq {
			tag = v
		}
	} else if len(uniq) > 1 {
		tag = "mixed"
	}
	return fmt.Sprintf("%s#%08x", tag, uint32(sum))
}

// Version identifies this manifest snapshot.
func (m *Manifest) Version() string { return m.version }

// ActionFor resolves the action for a label at the entity's own sensitivity
// tier. Unconfigured or disabled labels take the tier's default action; a
// missing default means redact.
func (m *Manifest) ActionFor(label string, tier types.Tier) types.Action {
	tm, ok := m.tiers[tier]
	if !ok {
		return types.ActionRedact
	}
	if r, ok := tm.Labels[label]; ok && r.Enabled && r.Action != "" {
		return r.Action
	}
	if tm.DefaultAction != "" {
		return tm.DefaultAction
	}
	return types.ActionRedact
}

// Rules returns the effective default action and a copy of the configured
// label rules for one tier.
func (m *Manifest) Rules(t types.Tier) (types.Action, map[string]LabelRule) {
	tm := m.tiers[t]
	def := tm.DefaultAction
	if def == "" {
		def = types.ActionRedact
	}
	out := make(map[string]LabelRule, len(tm.Labels))
	for label, r := range tm.Labels {
		out[label] = r
	}
	return def, out
}

// Engine serves policy lookups from the active manifest and supports
// explicit reloads. The manifest in use by an in-flight operation is never
// mutated; reload swaps the pointer.
type Engine struct {
	mu  sync.RWMutex
	dir string
	m   *Manifest
}

// NewEngine loads dir, or serves the built-in default when dir is empty.
func NewEngine(dir string) (*Engine, error) {
	e := &Engine{dir: dir}
	if dir == "" {
		e.m = Default()
		return e, nil
	}
	m, err := Load(dir)
	if err != nil {
		return nil, err
	}
	e.m = m
	return e, nil
}

// Active returns the current manifest snapshot.
func (e *Engine) Active() *Manifest {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.m
}

// Reload re-reads the policy directory. On failure the previous manifest
// stays active and the error is returned.
func (e *Engine) Reload() error {
	if e.dir == "" {
		return nil
	}
	m, err := Load(e.dir)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.m = m
	e.mu.Unlock()
	return nil
}
