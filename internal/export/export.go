// Package export persists rendered artifacts into a directory layout with
// one subdirectory per artifact kind:
//
//	<base>/hook/<table>.sql
//	<base>/uss_bridge/<table>.sql
//	<base>/uss_peripheral/<table>.sql
//
// Existing files are overwritten, except that a file whose current content
// hash matches the new rendering is left untouched. That keeps file
// modification times stable across repeated runs of a deterministic compiler,
// which downstream deployment tooling uses for change detection.
//
// I/O failures (permissions, disk) propagate unmasked; nothing here retries.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"hooksql/internal/compile"
	"hooksql/internal/metrics"
)

// Write exports every rendered artifact in res under base. Artifacts with no
// rendered text (an unmanaged table's hook entry) produce no file. It returns
// the number of files written (excluding unchanged files that were skipped).
func Write(base string, res compile.Result) (int, error) {
	if base == "" {
		return 0, fmt.Errorf("export: base directory must not be empty")
	}
	for _, kind := range compile.Kinds() {
		if err := os.MkdirAll(filepath.Join(base, string(kind)), 0o755); err != nil {
			return 0, fmt.Errorf("export: create %s directory: %w", kind, err)
		}
	}

	written := 0
	for _, table := range res.Tables {
		set, ok := res.Sets[table]
		if !ok {
			continue // table failed compilation; nothing to export
		}
		for _, kind := range compile.Kinds() {
			a, _ := set.ByKind(kind)
			if a.SQL == "" {
				continue
			}
			path := filepath.Join(base, string(kind), table+".sql")
			wrote, err := writeFile(path, []byte(a.SQL))
			if err != nil {
				return written, err
			}
			if wrote {
				written++
				metrics.RecordExport(string(kind), "written", 1)
			} else {
				metrics.RecordExport(string(kind), "skipped", 1)
			}
		}
	}
	return written, nil
}

// writeFile writes content to path, overwriting any existing file. The write
// is skipped when the existing file hashes identically to content; the bool
// result reports whether a write happened.
func writeFile(path string, content []byte) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil {
		if xxh3.Hash(existing) == xxh3.Hash(content) {
			return false, nil
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("export: write %s: %w", path, err)
	}
	return true, nil
}
