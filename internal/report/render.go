package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/scrubward/scrubward/internal/ledger"
	"github.com/scrubward/scrubward/internal/types"
)

type PrintOptions struct {
	NoColor  bool
	Duration time.Duration
}

// PrintEntities writes a human-readable listing of detected entities.
// Entity values never appear here; only coordinates, labels and previews.
func PrintEntities(w io.Writer, entities []types.Entity, opts PrintOptions) {
	sorted := make([]types.Entity, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Span.Start == sorted[j].Span.Start {
			return sorted[i].Label < sorted[j].Label
		}
		return sorted[i].Span.Start < sorted[j].Span.Start
	})
	if len(sorted) == 0 {
		fmt.Fprintln(w, "No sensitive entities found ✅")
	} else {
		maxLabel := 8
		for _, e := range sorted {
			if l := len(e.Label); l > maxLabel {
				maxLabel = l
			}
		}
		fmt.Fprintf(w, "Entities: %d\n", len(sorted))
		for _, e := range sorted {
			tier := string(e.Tier)
			if !opts.NoColor {
				tier = colorTier(e.Tier)
			}
			preview := e.MaskPreview
			if preview == "" {
				preview = "********"
			}
			fmt.Fprintf(w, "%-4s %-*s [%d:%d)  %-8s conf=%.2f  %s\n",
				tier, maxLabel, e.Label, e.Span.Start, e.Span.End, e.Action, e.Confidence, preview)
		}
	}
	high := 0
	for _, e := range sorted {
		if e.Tier == types.TierC4 {
			high++
		}
	}
	if opts.Duration > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Entities: %d (C4: %d)\n", len(sorted), high)
		fmt.Fprintf(w, "Scrub duration: %.2fs\n", opts.Duration.Seconds())
	}
}

// PrintAuditTail renders recent audit entries newest first.
func PrintAuditTail(w io.Writer, entries []ledger.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Audit log is empty")
		return
	}
	table := tablewriter.NewTable(w)
	table.Header([]string{"Time", "Operation", "Actor", "Outcome", "Entities", "Hash"})
	for _, e := range entries {
		_ = table.Append([]string{
			e.TS,
			shortID(e.OperationID),
			e.Actor,
			string(e.Outcome),
			fmt.Sprintf("%d", len(e.Entities)),
			shortHash(e.CurrHash),
		})
	}
	_ = table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func colorTier(t types.Tier) string {
	switch t {
	case types.TierC4:
		return "\x1b[31mC4\x1b[0m" // red
	case types.TierC3:
		return "\x1b[33mC3\x1b[0m" // yellow
	case types.TierC2:
		return "\x1b[36mC2\x1b[0m" // cyan
	default:
		return string(t)
	}
}
