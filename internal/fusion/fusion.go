// Package fusion merges candidate entities from the pattern detectors with
// candidates from an optional external recognition model, resolves span
// overlaps, and assigns each surviving entity a single confidence.
package fusion

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/scrubward/scrubward/internal/recognizer"
	"github.com/scrubward/scrubward/internal/types"
)

// Mode selects how a rule confidence and an external score combine.
type Mode struct {
	kind   string
	weight float64
}

// ParseMode parses "max", "avg" or "weighted:<w>". The weight is clamped to
// [0,1].
func ParseMode(s string) (Mode, error) {
	switch {
	case s == "" || s == "max":
		return Mode{kind: "max"}, nil
	case s == "avg":
		return Mode{kind: "avg"}, nil
	case strings.HasPrefix(s, "weighted:"):
		w, err := strconv.ParseFloat(strings.TrimPrefix(s, "weighted:"), 64)
		if err != nil {
			return Mode{}, fmt.Errorf("fusion mode %q: %w", s, err)
		}
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		return Mode{kind: "weighted", weight: w}, nil
	}
	return Mode{}, fmt.Errorf("unknown fusion mode %q", s)
}

func (m Mode) String() string {
	if m.kind == "weighted" {
		return fmt.Sprintf("weighted:%g", m.weight)
	}
	if m.kind == "" {
		return "max"
	}
	return m.kind
}

// combine applies the mode to a rule confidence and an external score.
func (m Mode) combine(rule, ext float64) float64 {
	var out float64
	switch m.kind {
	case "avg":
		out = (rule + ext) / 2
	case "weighted":
		out = m.weight*rule + (1-m.weight)*ext
	default: // max
		out = rule
		if ext > out {
			out = ext
		}
	}
	if out < 0 {
		out = 0
	}
	if out > 1 {
		out = 1
	}
	return out
}

// Options configures one fusion pass.
type Options struct {
	Mode Mode
	// LabelPriority breaks length ties between competing labels; earlier
	// entries win. Labels not listed rank after all listed ones.
	LabelPriority []string
	// TierOf classifies labels arriving from the external model. When nil,
	// every external label classifies to the highest tier.
	TierOf func(label string) types.Tier
}

func (o Options) priorityOf(label string) int {
	for i, l := range o.LabelPriority {
		if l == label {
			return i
		}
	}
	return len(o.LabelPriority)
}

func (o Options) tierOf(label string) types.Tier {
	if o.TierOf == nil {
		return types.TierC4
	}
	return o.TierOf(label)
}

// item is one fusible candidate, from either source.
type item struct {
	span     types.Span
	label    string
	external bool
	cand     types.Candidate      // valid when !external
	ext      recognizer.Candidate // valid when external
}

// Fuse resolves overlapping candidates into non-overlapping entities.
// External candidates are purely additive: with none supplied, confidences
// equal the rule constants unchanged.
func Fuse(content string, pattern []types.Candidate, external []recognizer.Candidate, opts Options) []types.Entity {
	items := make([]item, 0, len(pattern)+len(external))
	for _, c := range pattern {
		items = append(items, item{span: c.Span, label: c.Label, cand: c})
	}
	for _, e := range external {
		if e.Span.Start < 0 || e.Span.End > len(content) || e.Span.Start > e.Span.End {
			continue
		}
		items = append(items, item{span: e.Span, label: e.Label, external: true, ext: e})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].span.Start != items[j].span.Start {
			return items[i].span.Start < items[j].span.Start
		}
		return items[i].span.End < items[j].span.End
	})

	var entities []types.Entity
	cluster := []item{items[0]}
	maxEnd := items[0].span.End
	for _, it := range items[1:] {
		if it.span.Start < maxEnd {
			cluster = append(cluster, it)
			if it.span.End > maxEnd {
				maxEnd = it.span.End
			}
			continue
		}
		entities = append(entities, fuseCluster(content, cluster, opts))
		cluster = []item{it}
		maxEnd = it.span.End
	}
	entities = append(entities, fuseCluster(content, cluster, opts))

	sort.Slice(entities, func(i, j int) bool { return entities[i].Span.Start < entities[j].Span.Start })
	return entities
}

// fuseCluster picks the winner of one overlap cluster and computes its fused
// confidence. Winner: longest span, then label priority, then left-most
// start, then label string for a total order.
func fuseCluster(content string, cluster []item, opts Options) types.Entity {
	win := cluster[0]
	for _, it := range cluster[1:] {
		if better(it, win, opts) {
			win = it
		}
	}

	var ruleConf float64
	var extScore *float64
	var contributing []string
	seen := map[string]bool{}
	for _, it := range cluster {
		if !it.span.Overlaps(win.span) {
			continue
		}
		if it.external {
			if extScore == nil || it.ext.Score > *extScore {
				s := it.ext.Score
				extScore = &s
			}
			continue
		}
		if it.cand.Confidence > ruleConf {
			ruleConf = it.cand.Confidence
		}
		if !seen[it.cand.Detector] {
			seen[it.cand.Detector] = true
			contributing = append(contributing, it.cand.Detector)
		}
	}

	e := types.Entity{
		Label:         win.label,
		Span:          win.span,
		Value:         content[win.span.Start:win.span.End],
		Detectors:     contributing,
		ExternalScore: extScore,
	}
	switch {
	case !win.external:
		e.Tier = win.cand.Tier
		e.RuleID = win.cand.RuleID
		e.Validated = win.cand.Validated
		// The fused confidence belongs to the winning rule; overlapping
		// losers contribute to Detectors only.
		if extScore != nil {
			e.Confidence = opts.Mode.combine(win.cand.Confidence, *extScore)
		} else {
			e.Confidence = win.cand.Confidence
		}
	default:
		e.Tier = opts.tierOf(win.label)
		e.RuleID = "ml_candidate"
		e.Detectors = append(e.Detectors, "ml")
		e.Validated = true
		if ruleConf > 0 {
			e.Confidence = opts.Mode.combine(ruleConf, *extScore)
		} else {
			// No rule contribution at all: the model score stands alone.
			e.Confidence = *extScore
		}
	}
	return e
}

func better(a, b item, opts Options) bool {
	if a.span.Len() != b.span.Len() {
		return a.span.Len() > b.span.Len()
	}
	pa, pb := opts.priorityOf(a.label), opts.priorityOf(b.label)
	if pa != pb {
		return pa < pb
	}
	if a.span.Start != b.span.Start {
		return a.span.Start < b.span.Start
	}
	return a.label < b.label
}
