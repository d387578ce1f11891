package fusion

import (
	"testing"

	"github.com/scrubward/scrubward/internal/recognizer"
	"github.com/scrubward/scrubward/internal/types"
)

func cand(label string, start, end int, conf float64, content string) types.Candidate {
	return types.Candidate{
		Label:      label,
		Span:       types.Span{Start: start, End: end},
		Value:      content[start:end],
		Confidence: conf,
		Detector:   label,
		RuleID:     label + "_rule",
		Tier:       types.TierC2,
		Validated:  true,
	}
}

func TestFuseNoOverlapPassthrough(t *testing.T) {
	content := "aaaa bbbb cccc"
	cands := []types.Candidate{
		cand("A", 0, 4, 0.9, content),
		cand("B", 5, 9, 0.8, content),
	}
	got := Fuse(content, cands, nil, Options{})
	if len(got) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(got))
	}
	if got[0].Confidence != 0.9 || got[1].Confidence != 0.8 {
		t.Errorf("rule confidences must pass through unchanged: %+v", got)
	}
}

func TestFuseOverlapLongestWins(t *testing.T) {
	content := "0123456789"
	cands := []types.Candidate{
		cand("SHORT", 2, 5, 0.99, content),
		cand("LONG", 0, 8, 0.70, content),
	}
	got := Fuse(content, cands, nil, Options{})
	if len(got) != 1 {
		t.Fatalf("expected 1 fused entity, got %d", len(got))
	}
	e := got[0]
	if e.Label != "LONG" {
		t.Errorf("longest span should win, got %s", e.Label)
	}
	// The fused score is the winner's own rule confidence; the losing
	// candidate contributes to Detectors only.
	if e.Confidence != 0.70 {
		t.Errorf("confidence = %v, want winner's own 0.70", e.Confidence)
	}
	if e.RuleID != "LONG_rule" {
		t.Errorf("rule id = %s, want LONG_rule", e.RuleID)
	}
	if len(e.Detectors) != 2 {
		t.Errorf("both detectors should contribute: %v", e.Detectors)
	}
}

func TestFuseOverlapKeepsWinnerConfidence(t *testing.T) {
	content := "DE89370400440532013000 extra"
	cands := []types.Candidate{
		{
			Label: "IBAN", Span: types.Span{Start: 0, End: 20}, Value: content[0:20],
			Confidence: 0.95, Detector: "iban", RuleID: "IBAN_basic",
			Tier: types.TierC4, Validated: true,
		},
		{
			Label: "PAN", Span: types.Span{Start: 5, End: 15}, Value: content[5:15],
			Confidence: 0.99, Detector: "pan", RuleID: "PAN_luhn",
			Tier: types.TierC4, Validated: true,
		},
	}
	got := Fuse(content, cands, nil, Options{})
	if len(got) != 1 {
		t.Fatalf("expected 1 fused entity, got %d", len(got))
	}
	e := got[0]
	if e.Label != "IBAN" || e.RuleID != "IBAN_basic" {
		t.Fatalf("longest span should win: %+v", e)
	}
	if e.Confidence != 0.95 {
		t.Errorf("confidence = %v, want the winning rule's 0.95", e.Confidence)
	}
}

func TestFuseOutputsNeverOverlap(t *testing.T) {
	content := "01234567890123456789"
	cands := []types.Candidate{
		cand("A", 0, 6, 0.5, content),
		cand("B", 4, 10, 0.6, content),
		cand("C", 9, 14, 0.7, content),
		cand("D", 16, 19, 0.8, content),
	}
	got := Fuse(content, cands, nil, Options{})
	for i := 1; i < len(got); i++ {
		if got[i-1].Span.Overlaps(got[i].Span) {
			t.Fatalf("entities %d and %d overlap: %+v", i-1, i, got)
		}
		if got[i-1].Span.Start > got[i].Span.Start {
			t.Fatalf("entities out of order: %+v", got)
		}
	}
}

func TestFuseLabelPriorityBreaksTies(t *testing.T) {
	content := "0123456789"
	cands := []types.Candidate{
		cand("BETA", 0, 5, 0.5, content),
		cand("ALPHA", 0, 5, 0.5, content),
	}
	got := Fuse(content, cands, nil, Options{LabelPriority: []string{"BETA", "ALPHA"}})
	if len(got) != 1 || got[0].Label != "BETA" {
		t.Fatalf("priority should pick BETA: %+v", got)
	}
	got = Fuse(content, cands, nil, Options{})
	if len(got) != 1 || got[0].Label != "ALPHA" {
		t.Fatalf("without priority, label order is the final tiebreak: %+v", got)
	}
}

func TestFuseExternalAdjustsConfidence(t *testing.T) {
	content := "0123456789"
	cands := []types.Candidate{cand("A", 0, 6, 0.8, content)}
	ext := []recognizer.Candidate{{Label: "A", Span: types.Span{Start: 0, End: 6}, Score: 0.6}}

	max, _ := ParseMode("max")
	got := Fuse(content, cands, ext, Options{Mode: max})
	if got[0].Confidence != 0.8 {
		t.Errorf("max: confidence = %v, want 0.8", got[0].Confidence)
	}
	if got[0].ExternalScore == nil || *got[0].ExternalScore != 0.6 {
		t.Errorf("external score not recorded: %+v", got[0])
	}

	avg, _ := ParseMode("avg")
	got = Fuse(content, cands, ext, Options{Mode: avg})
	if diff := got[0].Confidence - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg: confidence = %v, want 0.7", got[0].Confidence)
	}

	weighted, _ := ParseMode("weighted:0.75")
	got = Fuse(content, cands, ext, Options{Mode: weighted})
	want := 0.75*0.8 + 0.25*0.6
	if diff := got[0].Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("weighted: confidence = %v, want %v", got[0].Confidence, want)
	}
}

func TestFuseWithoutExternalIsBaseline(t *testing.T) {
	content := "0123456789"
	cands := []types.Candidate{cand("A", 0, 6, 0.8, content)}
	avg, _ := ParseMode("avg")
	got := Fuse(content, cands, nil, Options{Mode: avg})
	if got[0].Confidence != 0.8 {
		t.Errorf("no external input must leave rule confidence untouched, got %v", got[0].Confidence)
	}
	if got[0].ExternalScore != nil {
		t.Error("external score must be nil without model input")
	}
}

func TestFuseExternalOnlyCluster(t *testing.T) {
	content := "call me maybe"
	ext := []recognizer.Candidate{{Label: "PERSON", Span: types.Span{Start: 0, End: 4}, Score: 0.66}}
	got := Fuse(content, nil, ext, Options{TierOf: func(string) types.Tier { return types.TierC3 }})
	if len(got) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(got))
	}
	e := got[0]
	if e.Confidence != 0.66 || e.Tier != types.TierC3 || e.RuleID != "ml_candidate" {
		t.Errorf("unexpected external-only entity: %+v", e)
	}
}

func TestFuseExternalOnlyUnknownLabelFailsHigh(t *testing.T) {
	content := "something"
	ext := []recognizer.Candidate{{Label: "MYSTERY", Span: types.Span{Start: 0, End: 4}, Score: 0.5}}
	got := Fuse(content, nil, ext, Options{})
	if got[0].Tier != types.TierC4 {
		t.Errorf("unknown external label must classify to C4, got %s", got[0].Tier)
	}
}

func TestFuseDropsOutOfBoundsExternal(t *testing.T) {
	content := "short"
	ext := []recognizer.Candidate{
		{Label: "X", Span: types.Span{Start: -1, End: 3}, Score: 0.9},
		{Label: "Y", Span: types.Span{Start: 2, End: 99}, Score: 0.9},
	}
	if got := Fuse(content, nil, ext, Options{}); len(got) != 0 {
		t.Fatalf("out-of-bounds external spans must be dropped: %+v", got)
	}
}

func TestParseMode(t *testing.T) {
	for _, ok := range []string{"", "max", "avg", "weighted:0.5", "weighted:2"} {
		if _, err := ParseMode(ok); err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"median", "weighted:", "weighted:x"} {
		if _, err := ParseMode(bad); err == nil {
			t.Errorf("ParseMode(%q) should fail", bad)
		}
	}
}

func TestModeCombineClamps(t *testing.T) {
	m, _ := ParseMode("weighted:1")
	if got := m.combine(1.5, 0); got != 1 {
		t.Errorf("combine must clamp to 1, got %v", got)
	}
}
