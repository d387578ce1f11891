package detectors

import (
	"testing"

	"github.com/scrubward/scrubward/internal/types"
)

func TestVATNumber(t *testing.T) {
	cs := VATNumber("invoice for BE0123456789 attached")
	if len(cs) != 1 {
		t.Fatalf("expected one vat candidate, got %d", len(cs))
	}
	if cs[0].Value != "BE0123456789" || cs[0].Tier != types.TierC3 {
		t.Errorf("unexpected candidate: %+v", cs[0])
	}
}

func TestVATNumberLengthBounds(t *testing.T) {
	// Two letters plus eight digits is the shortest accepted shape.
	if cs := VATNumber("NL12345678"); len(cs) != 1 {
		t.Fatalf("expected minimum-length vat to match, got %d", len(cs))
	}
}
