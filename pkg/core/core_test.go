package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Config{
		Salt:    []byte("test-salt"),
		Key:     bytes.Repeat([]byte{5}, 32),
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPipelineScrubAndReverse(t *testing.T) {
	p := newTestPipeline(t)
	content := "Refund to BE71 0961 2345 6769, confirm via alice@example.com."

	res, err := p.Scrub(context.Background(), ScrubRequest{
		Content: content, Tier: TierC4, Actor: "svc",
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.Scrubbed, "BE71") || strings.Contains(res.Scrubbed, "alice@") {
		t.Fatalf("raw values survived: %q", res.Scrubbed)
	}

	rev, err := p.DeScrub(context.Background(), DeScrubRequest{
		OperationID:   res.Operation.OperationID,
		Actor:         "auditor",
		Clearance:     TierC4,
		Justification: "integration check",
		Selection:     Selection{Full: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rev.Outcome != OutcomeGranted || rev.Content != content {
		t.Fatalf("round trip failed: %+v", rev)
	}

	if pos, err := p.VerifyAudit(); err != nil || pos != -1 {
		t.Fatalf("VerifyAudit = (%d, %v)", pos, err)
	}
	tail, err := p.AuditTail(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 {
		t.Fatalf("audit tail has %d entries, want scrub + grant", len(tail))
	}
}

func TestPipelineRequiresSecrets(t *testing.T) {
	if _, err := NewPipeline(Config{Key: bytes.Repeat([]byte{5}, 32), DataDir: t.TempDir()}); err == nil {
		t.Fatal("missing salt must be rejected")
	}
	if _, err := NewPipeline(Config{Salt: []byte("s"), Key: []byte("short"), DataDir: t.TempDir()}); err == nil {
		t.Fatal("malformed key must be rejected")
	}
}

func TestPipelineDenial(t *testing.T) {
	p := newTestPipeline(t)
	res, err := p.Scrub(context.Background(), ScrubRequest{
		Content: "wire BE71 0961 2345 6769", Tier: TierC4, Actor: "svc",
	})
	if err != nil {
		t.Fatal(err)
	}
	rev, err := p.DeScrub(context.Background(), DeScrubRequest{
		OperationID:   res.Operation.OperationID,
		Actor:         "intern",
		Clearance:     TierC1,
		Justification: "peek",
		Selection:     Selection{Full: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rev.Outcome != OutcomeDenied || rev.Content != "" {
		t.Fatalf("expected audited denial: %+v", rev)
	}
}
