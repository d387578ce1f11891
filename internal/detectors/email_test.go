package detectors

import (
	"testing"

	"github.com/scrubward/scrubward/internal/types"
)

func TestEmail(t *testing.T) {
	cs := Email("contact alice.smith+dev@example.co.uk today")
	if len(cs) != 1 {
		t.Fatalf("expected one email candidate, got %d", len(cs))
	}
	c := cs[0]
	if c.Value != "alice.smith+dev@example.co.uk" {
		t.Errorf("value = %q", c.Value)
	}
	if c.RuleID != "EMAIL_basic" || c.Tier != types.TierC2 || c.Confidence != 0.98 {
		t.Errorf("unexpected rule metadata: %+v", c)
	}
}

func TestEmailNone(t *testing.T) {
	if cs := Email("no addresses here"); len(cs) != 0 {
		t.Fatalf("expected no candidates, got %d", len(cs))
	}
}
