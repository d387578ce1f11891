package scrub

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func collect(t *testing.T, cfg WalkConfig) []string {
	t.Helper()
	var got []string
	err := WalkFiles(context.Background(), cfg, func(path string, _ []byte) error {
		got = append(got, path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestWalkFilesSkipsDefaultDirsAndBinaries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":              "hello",
		"logo.png":           "not really an image",
		".git/config":        "secret",
		"node_modules/x.txt": "dep",
		"sub/b.md":           "world",
	})
	got := collect(t, WalkConfig{Root: root})
	want := map[string]bool{"a.txt": true, filepath.Join("sub", "b.md"): true}
	if len(got) != len(want) {
		t.Fatalf("visited %v", got)
	}
	for _, p := range got {
		if !want[p] {
			t.Errorf("unexpected visit: %s", p)
		}
	}
}

func TestWalkFilesIncludeExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "one",
		"b.log":     "two",
		"sub/c.txt": "three",
	})
	got := collect(t, WalkConfig{Root: root, IncludeGlobs: "**/*.txt"})
	if len(got) != 2 {
		t.Fatalf("include filter visited %v", got)
	}
	got = collect(t, WalkConfig{Root: root, IncludeGlobs: "**/*.txt", ExcludeGlobs: "sub/**"})
	if len(got) != 1 || got[0] != "a.txt" {
		t.Fatalf("exclude filter visited %v", got)
	}
}

func TestWalkFilesDeduplicatesContent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"one.txt":  "same bytes",
		"two.txt":  "same bytes",
		"diff.txt": "different",
	})
	got := collect(t, WalkConfig{Root: root})
	if len(got) != 2 {
		t.Fatalf("expected content dedupe to drop one file, visited %v", got)
	}
}

func TestWalkFilesMaxBytes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.txt": "ok",
		"big.txt":   "0123456789",
	})
	got := collect(t, WalkConfig{Root: root, MaxBytes: 5})
	if len(got) != 1 || got[0] != "small.txt" {
		t.Fatalf("visited %v", got)
	}
}
