package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/beamstd/internal/record"
)

// ValidationResult holds the outcome of validating a descriptor.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	ID      string         `json:"id,omitempty"`
	Summary map[string]any `json:"summary,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <descriptor>",
		Short: "Validate a run descriptor without writing anything",
		Long: `Load a run descriptor (CUE or YAML), populate and finalize the record
in memory, and report the first validation failure with its error code.
Nothing is written to disk.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	rec, err := finalizeDescriptor(formatter, path)
	if err != nil {
		return err
	}

	formatter.VerboseLog("record finalized, ID %s", rec.ID())
	if opts.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:   true,
			ID:      rec.ID(),
			Summary: summaryMap(rec),
		})
	}
	return formatter.Success("valid: " + rec.ID())
}

// finalizeDescriptor loads a descriptor, builds the record and
// finalizes it, converting failures to formatted ExitErrors shared by
// validate and build.
func finalizeDescriptor(formatter *OutputFormatter, path string) (*record.Record, error) {
	desc, err := LoadDescriptor(path)
	if err != nil {
		formatter.Error("load", err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "load descriptor", err)
	}

	rec, err := BuildRecord(desc)
	if err == nil {
		err = rec.Finalize()
	}
	if err != nil {
		var ve *record.ValidationError
		if errors.As(err, &ve) {
			formatter.Error(ve.Code, ve.Message, ve)
			return nil, WrapExitError(ExitFailure, "validation failed", err)
		}
		formatter.Error("internal", err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "validation failed", err)
	}
	return rec, nil
}

func summaryMap(rec *record.Record) map[string]any {
	out := make(map[string]any)
	for _, key := range rec.SummaryKeys() {
		v, _ := rec.SummaryValue(key)
		out[key] = v
	}
	return out
}
