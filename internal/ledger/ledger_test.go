package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scrubward/scrubward/internal/types"
)

func entryFor(op string) Entry {
	return Entry{
		Actor:        "svc",
		OperationID:  op,
		OriginalHash: "aa",
		ScrubbedHash: "bb",
		Outcome:      types.OutcomeScrubbed,
	}
}

func TestAppendChainsFromGenesis(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	first, err := l.Append(entryFor("op-1"))
	if err != nil {
		t.Fatal(err)
	}
	if first.PrevHash != Genesis {
		t.Errorf("first entry prev_hash = %q, want genesis", first.PrevHash)
	}
	if len(first.CurrHash) != 64 {
		t.Errorf("curr_hash %q is not a sha256 hex digest", first.CurrHash)
	}

	second, err := l.Append(entryFor("op-2"))
	if err != nil {
		t.Fatal(err)
	}
	if second.PrevHash != first.CurrHash {
		t.Error("second entry does not link to the first")
	}
}

func TestVerifyIntactChain(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	for i := 0; i < 5; i++ {
		if _, err := l.Append(entryFor(fmt.Sprintf("op-%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	pos, err := l.Verify()
	if err != nil || pos != -1 {
		t.Fatalf("Verify() = (%d, %v), want (-1, nil)", pos, err)
	}
}

func TestVerifyDetectsTamperedEntry(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if _, err := l.Append(entryFor(fmt.Sprintf("op-%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	l.Close()

	// Flip a field inside entry 2 without recomputing its hash.
	path := filepath.Join(dir, "audit.jsonl")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	var e Entry
	if err := json.Unmarshal([]byte(lines[2]), &e); err != nil {
		t.Fatal(err)
	}
	e.Actor = "intruder"
	mod, _ := json.Marshal(e)
	lines[2] = string(mod)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	l2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()
	pos, err := l2.Verify()
	if !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("expected ErrChainIntegrity, got %v", err)
	}
	if pos != 2 {
		t.Errorf("break reported at %d, want 2", pos)
	}
}

func TestBrokenChainRefusesAppend(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Append(entryFor("op-0")); err != nil {
		t.Fatal(err)
	}
	l.Close()

	path := filepath.Join(dir, "audit.jsonl")
	raw, _ := os.ReadFile(path)
	tampered := strings.Replace(string(raw), `"actor":"svc"`, `"actor":"eve"`, 1)
	if tampered == string(raw) {
		t.Fatal("tamper substitution did not apply")
	}
	if err := os.WriteFile(path, []byte(tampered), 0o600); err != nil {
		t.Fatal(err)
	}

	l2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()
	if _, err := l2.Verify(); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("expected ErrChainIntegrity, got %v", err)
	}
	if _, err := l2.Append(entryFor("op-1")); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("append on a broken chain must fail, got %v", err)
	}
}

func TestReopenRecoversTail(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	first, err := l.Append(entryFor("op-0"))
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	l2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()
	second, err := l2.Append(entryFor("op-1"))
	if err != nil {
		t.Fatal(err)
	}
	if second.PrevHash != first.CurrHash {
		t.Error("reopened ledger lost the chain tail")
	}
	if pos, err := l2.Verify(); err != nil || pos != -1 {
		t.Fatalf("Verify() after reopen = (%d, %v)", pos, err)
	}
}

func TestTailNewestFirst(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	for i := 0; i < 5; i++ {
		if _, err := l.Append(entryFor(fmt.Sprintf("op-%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	got, err := l.Tail(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].OperationID != "op-4" || got[2].OperationID != "op-2" {
		t.Errorf("unexpected order: %s .. %s", got[0].OperationID, got[2].OperationID)
	}
}

func TestFindByOperation(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if _, err := l.Append(entryFor("op-a")); err != nil {
		t.Fatal(err)
	}
	e := entryFor("op-a")
	e.Outcome = types.OutcomeDenied
	if _, err := l.Append(e); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Append(entryFor("op-b")); err != nil {
		t.Fatal(err)
	}

	got, err := l.FindByOperation("op-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Outcome != types.OutcomeScrubbed || got[1].Outcome != types.OutcomeDenied {
		t.Errorf("entries out of insertion order: %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	sums := []EntitySummary{
		{Identifier: "a", Label: "EMAIL", Tier: types.TierC2},
		{Identifier: "b", Label: "IBAN", Tier: types.TierC4},
		{Identifier: "c", Label: "IBAN", Tier: types.TierC4},
	}
	s := Summarize(sums, types.TierC3)
	if s.Total != 3 || s.Masked != 2 {
		t.Errorf("total=%d masked=%d", s.Total, s.Masked)
	}
	if s.ByLabel["IBAN"] != 2 || s.ByTier["C4"] != 2 {
		t.Errorf("aggregates wrong: %+v", s)
	}
}
