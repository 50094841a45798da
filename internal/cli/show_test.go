package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow_Text(t *testing.T) {
	dir := t.TempDir()
	path := buildRun(t, "quad_scan.yaml", dir)
	id := strings.TrimSuffix(filepath.Base(path), ".bst")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, id)
	assert.Contains(t, out, "variant: experiment")
	assert.Contains(t, out, "charge")
	assert.Contains(t, out, "xrms")
}

func TestShow_CheckPasses(t *testing.T) {
	dir := t.TempDir()
	path := buildRun(t, "quad_scan.yaml", dir)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--check"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["id_matches"])
}

func TestShow_MissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewShowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.bst")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
