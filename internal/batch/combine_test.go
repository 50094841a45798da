package batch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/beamstd/internal/record"
	"github.com/roach88/beamstd/internal/store"
)

func writeRun(t *testing.T, dir, name, lattice string, charge float64) string {
	t.Helper()

	rec := record.New()
	require.NoError(t, rec.AddScalarInput(record.ScalarField{
		Name: "charge", Value: charge, Location: "gun", Units: "pC", Description: "bunch charge",
	}))
	require.NoError(t, rec.SetLattice(record.LatticeRef{Location: lattice}))
	require.NoError(t, rec.SetRunInfo(record.RunInfo{
		Source: "beamline A", Date: "2024-03-15", Notes: "scan point",
	}))
	require.NoError(t, rec.SetSummary(record.Summary{Keys: []string{"charge"}}))
	require.NoError(t, rec.Finalize())

	path := filepath.Join(dir, name)
	require.NoError(t, store.Write(rec, path))
	return path
}

func TestCombine(t *testing.T) {
	dir := t.TempDir()
	a := writeRun(t, dir, "a.bst", "/lattices/fodo.lat", 100)
	b := writeRun(t, dir, "b.bst", "/lattices/fodo.lat", 200)

	dst := filepath.Join(dir, "batch.bst")
	entries, err := Combine(dst, []string{a, b})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	got, err := store.ReadBatch(dst)
	require.NoError(t, err)
	require.Len(t, got, 2)

	sources := map[string]bool{}
	for _, e := range got {
		sources[e.SourceFile] = true
		assert.Equal(t, "/lattices/fodo.lat", e.Record.Lattice().Location)
	}
	assert.True(t, sources[a])
	assert.True(t, sources[b])
}

func TestCombine_DuplicateRuns(t *testing.T) {
	dir := t.TempDir()
	a := writeRun(t, dir, "a.bst", "/lattices/fodo.lat", 100)
	b := writeRun(t, dir, "b.bst", "/lattices/fodo.lat", 100)

	dst := filepath.Join(dir, "batch.bst")
	entries, err := Combine(dst, []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, entries[0].Record.ID(), entries[1].Record.ID())

	// Identical runs still land in separate groups.
	got, err := store.ReadBatch(dst)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCombine_LatticeMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeRun(t, dir, "a.bst", "/lattices/fodo.lat", 100)
	b := writeRun(t, dir, "b.bst", "/lattices/chicane.lat", 200)

	dst := filepath.Join(dir, "batch.bst")
	_, err := Combine(dst, []string{a, b})
	require.Error(t, err)
	assert.True(t, record.IsValueError(err))

	var ve *record.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, record.ErrLatticeMismatch, ve.Code)
}

func TestCombine_NoSources(t *testing.T) {
	_, err := Combine(filepath.Join(t.TempDir(), "batch.bst"), nil)
	require.Error(t, err)
}

func TestIndex(t *testing.T) {
	dir := t.TempDir()
	a := writeRun(t, dir, "a.bst", "/lattices/fodo.lat", 100)
	b := writeRun(t, dir, "b.bst", "/lattices/fodo.lat", 200)

	dst := filepath.Join(dir, "batch.bst")
	entries, err := Combine(dst, []string{a, b})
	require.NoError(t, err)

	idxPath := filepath.Join(dir, "batch.yaml")
	require.NoError(t, WriteIndex(idxPath, entries))

	data, err := Index(entries)
	require.NoError(t, err)

	var idx []IndexEntry
	require.NoError(t, yaml.Unmarshal(data, &idx))
	require.Len(t, idx, 2)
	assert.Equal(t, a, idx[0].File)
	assert.Equal(t, entries[0].Record.ID(), idx[0].ID)
	assert.Contains(t, idx[0].Summary, "charge")
	assert.Contains(t, idx[0].Summary, "ID")
}
