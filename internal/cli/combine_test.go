package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/beamstd/internal/store"
)

func TestCombine_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	a := buildRun(t, "quad_scan.yaml", filepath.Join(dir, "a"))
	b := buildRun(t, "quad_scan.cue", filepath.Join(dir, "b"))

	dst := filepath.Join(dir, "batch.bst")
	idx := filepath.Join(dir, "batch.yaml")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCombineCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dst, a, b, "--index", idx})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["runs"])

	entries, err := store.ReadBatch(dst)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	idxData, err := os.ReadFile(idx)
	require.NoError(t, err)
	var parsed []map[string]any
	require.NoError(t, yaml.Unmarshal(idxData, &parsed))
	assert.Len(t, parsed, 2)
	assert.Equal(t, a, parsed[0]["file"])
}

func TestCombine_RequiresSources(t *testing.T) {
	cmd := NewCombineCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"out.bst"})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestCombine_MissingInput(t *testing.T) {
	dir := t.TempDir()
	buf := &bytes.Buffer{}
	cmd := NewCombineCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(dir, "out.bst"), filepath.Join(dir, "absent.bst")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
