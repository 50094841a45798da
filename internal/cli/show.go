package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/beamstd/internal/store"
)

// ShowResult holds the inspection output for one persisted run.
type ShowResult struct {
	ID        string         `json:"id"`
	Simulated bool           `json:"simulated"`
	Lattice   string         `json:"lattice"`
	Inputs    []string       `json:"inputs"`
	Outputs   []string       `json:"outputs"`
	Summary   map[string]any `json:"summary"`
	IDMatches *bool          `json:"id_matches,omitempty"` // set by --check
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the ID and summary of a persisted run",
		Long: `Read a persisted single-run container and print its ID, field names
and extracted summary. With --check the ID is recomputed from the stored
inputs and compared against the stored one; a mismatch means the file
was edited after finalization and exits non-zero.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], check, cmd)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "recompute the ID and compare against the stored one")
	return cmd
}

func runShow(opts *RootOptions, path string, check bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	rec, err := store.Read(path)
	if err != nil {
		formatter.Error("read", err.Error(), nil)
		return WrapExitError(ExitCommandError, "read record", err)
	}

	result := ShowResult{
		ID:        rec.ID(),
		Simulated: rec.Simulated(),
		Lattice:   rec.Lattice().Location,
		Summary:   summaryMap(rec),
	}
	for _, in := range rec.ScalarInputs() {
		result.Inputs = append(result.Inputs, in.Name)
	}
	for _, out := range rec.Outputs() {
		result.Outputs = append(result.Outputs, out.Name)
	}

	if check {
		computed, err := rec.RecomputeID()
		if err != nil {
			formatter.Error("check", err.Error(), nil)
			return WrapExitError(ExitCommandError, "recompute ID", err)
		}
		matches := computed == rec.ID()
		result.IDMatches = &matches
		formatter.VerboseLog("stored ID %s, recomputed %s", rec.ID(), computed)
		if !matches {
			formatter.Error("check", fmt.Sprintf("stored ID %s does not match recomputed %s", rec.ID(), computed), result)
			return NewExitError(ExitFailure, "ID mismatch")
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(renderShowText(result))
}

func renderShowText(r ShowResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:      %s\n", r.ID)
	if r.Simulated {
		b.WriteString("variant: simulation\n")
	} else {
		b.WriteString("variant: experiment\n")
	}
	fmt.Fprintf(&b, "lattice: %s\n", r.Lattice)
	fmt.Fprintf(&b, "inputs:  %s\n", strings.Join(r.Inputs, ", "))
	fmt.Fprintf(&b, "outputs: %s\n", strings.Join(r.Outputs, ", "))
	if r.IDMatches != nil {
		fmt.Fprintf(&b, "id ok:   %t\n", *r.IDMatches)
	}

	keys := make([]string, 0, len(r.Summary))
	for k := range r.Summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("summary:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, r.Summary[k])
	}
	return b.String()
}
