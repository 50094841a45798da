package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/beamstd/internal/batch"
	"github.com/roach88/beamstd/internal/record"
)

// CombineResult holds the outcome of a batch combine.
type CombineResult struct {
	File  string   `json:"file"`
	Runs  int      `json:"runs"`
	IDs   []string `json:"ids"`
	Index string   `json:"index,omitempty"`
}

// NewCombineCommand creates the combine command.
func NewCombineCommand(rootOpts *RootOptions) *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "combine <out> <in>...",
		Short: "Merge persisted single-run files into one batch container",
		Long: `Read each input container and write all runs into one batch container,
one group per run ID (duplicates get a numeric suffix) with a
source_file provenance attribute. All runs must share a lattice
location. With --index a YAML index of the batch is also written.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(rootOpts, args[0], args[1:], indexPath, cmd)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "also write a YAML batch index to this path")
	return cmd
}

func runCombine(opts *RootOptions, dst string, srcs []string, indexPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	entries, err := batch.Combine(dst, srcs)
	if err != nil {
		var ve *record.ValidationError
		if errors.As(err, &ve) {
			formatter.Error(ve.Code, ve.Message, ve)
			return WrapExitError(ExitFailure, "combine failed", err)
		}
		formatter.Error("combine", err.Error(), nil)
		return WrapExitError(ExitCommandError, "combine failed", err)
	}
	formatter.VerboseLog("combined %d runs into %s", len(entries), dst)

	result := CombineResult{File: dst, Runs: len(entries)}
	for _, e := range entries {
		result.IDs = append(result.IDs, e.Record.ID())
	}

	if indexPath != "" {
		if err := batch.WriteIndex(indexPath, entries); err != nil {
			formatter.Error("index", err.Error(), nil)
			return WrapExitError(ExitCommandError, "write batch index", err)
		}
		result.Index = indexPath
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(dst)
}
