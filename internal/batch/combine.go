// Package batch merges persisted single-run containers into one batch
// container, one group per run, and renders a YAML index over the
// result.
package batch

import (
	"fmt"

	"github.com/roach88/beamstd/internal/record"
	"github.com/roach88/beamstd/internal/store"
)

// Combine reads each source container and writes all runs into one
// batch container at dst. A batch is meaningful only for runs of the
// same machine layout, so every run must carry the same lattice
// location; the first mismatch aborts the combine.
func Combine(dst string, srcs []string) ([]store.BatchEntry, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("combine: no source files given")
	}

	entries := make([]store.BatchEntry, 0, len(srcs))
	var lattice string
	for i, src := range srcs {
		rec, err := store.Read(src)
		if err != nil {
			return nil, fmt.Errorf("combine %q: %w", src, err)
		}
		loc := rec.Lattice().Location
		if i == 0 {
			lattice = loc
		} else if loc != lattice {
			return nil, record.NewValueError(record.ErrLatticeMismatch, src,
				"lattice location %q does not match batch lattice %q", loc, lattice)
		}
		entries = append(entries, store.BatchEntry{Record: rec, SourceFile: src})
	}

	if err := store.WriteBatch(dst, entries); err != nil {
		return nil, err
	}
	return entries, nil
}
