package scrub

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
	xxhash "github.com/cespare/xxhash/v2"
)

// WalkConfig scopes a batch scrub over a directory tree.
type WalkConfig struct {
	Root         string
	IncludeGlobs string // comma-separated, positive filter when set
	ExcludeGlobs string // comma-separated, subtracted last
	MaxBytes     int64
}

var defaultDirExcludes = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, ".idea": true, ".vscode": true,
}

var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".pdf": true,
	".zip": true, ".gz": true, ".tar": true, ".so": true, ".bin": true,
	".exe": true, ".woff": true, ".woff2": true, ".ico": true,
}

// WalkFiles traverses the tree and invokes handle for each eligible text
// file. Identical file contents are visited once: duplicates add nothing to
// a batch scrub but would burn a receipt each.
func WalkFiles(ctx context.Context, cfg WalkConfig, handle func(path string, data []byte) error) error {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 << 20
	}
	seen := map[uint64]bool{}
	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if defaultDirExcludes[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		if binaryExts[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil || info.Size() > cfg.MaxBytes {
			return nil
		}
		data, rerr := os.ReadFile(p)
		if rerr != nil {
			return nil
		}
		h := xxhash.Sum64(data)
		if seen[h] {
			return nil
		}
		seen[h] = true
		return handle(rel, data)
	})
}

// allowedByGlobs applies include/exclude doublestar globs with forward-slash
// semantics, matching both the relative path and its basename.
func allowedByGlobs(relPath string, cfg WalkConfig) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
