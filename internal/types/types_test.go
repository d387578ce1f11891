package types

import "testing"

func TestTierOrdering(t *testing.T) {
	if !(TierC1.Rank() < TierC2.Rank() && TierC2.Rank() < TierC3.Rank() && TierC3.Rank() < TierC4.Rank()) {
		t.Fatal("tier ranks out of order")
	}
	if Tier("C9").Rank() != TierC4.Rank() {
		t.Error("unknown tiers must rank highest")
	}
	if Tier("C9").Valid() {
		t.Error("unknown tier reported valid")
	}
}

func TestSpanOverlaps(t *testing.T) {
	a := Span{Start: 0, End: 5}
	tests := []struct {
		b    Span
		want bool
	}{
		{Span{Start: 5, End: 8}, false}, // half-open: touching ends do not overlap
		{Span{Start: 4, End: 8}, true},
		{Span{Start: 0, End: 5}, true},
		{Span{Start: 6, End: 9}, false},
	}
	for _, tt := range tests {
		if got := a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", a, tt.b, got, tt.want)
		}
	}
}

func TestMaxTier(t *testing.T) {
	if got := MaxTier(nil); got != TierC1 {
		t.Errorf("MaxTier(nil) = %s", got)
	}
	entities := []Entity{{Tier: TierC2}, {Tier: TierC4}, {Tier: TierC3}}
	if got := MaxTier(entities); got != TierC4 {
		t.Errorf("MaxTier = %s", got)
	}
}

func TestParseTier(t *testing.T) {
	if _, err := ParseTier("C3"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseTier("c3"); err == nil {
		t.Error("tiers are case-sensitive")
	}
}
