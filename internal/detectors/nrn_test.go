package detectors

import "testing"

func TestNationalRegisterNumberFormatted(t *testing.T) {
	cs := NationalRegisterNumber("RRN 85.07.30-033.28 on file")
	if len(cs) != 1 {
		t.Fatalf("expected one nrn candidate, got %d", len(cs))
	}
	if cs[0].Value != "85.07.30-033.28" || cs[0].RuleID != "NRN_be" {
		t.Errorf("unexpected candidate: %+v", cs[0])
	}
}

func TestNationalRegisterNumberBare(t *testing.T) {
	cs := NationalRegisterNumber("id 85073003328")
	if len(cs) != 1 || cs[0].Value != "85073003328" {
		t.Fatalf("expected bare nrn, got %+v", cs)
	}
}

func TestNationalRegisterNumberBadCheckDropped(t *testing.T) {
	if cs := NationalRegisterNumber("id 85.07.30-033.29"); len(cs) != 0 {
		t.Fatalf("expected zero candidates, got %d", len(cs))
	}
}
