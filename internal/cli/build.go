package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/beamstd/internal/store"
)

// BuildResult holds the outcome of persisting a descriptor.
type BuildResult struct {
	ID   string `json:"id"`
	File string `json:"file"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "build <descriptor>",
		Short: "Finalize a run descriptor and persist it as <ID>.bst",
		Long: `Load a run descriptor (CUE or YAML), finalize the record, and write it
to <out-dir>/<ID>.bst. The container is written to a temporary file and
renamed into place, so a crash never leaves a half-written record under
the final name.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(rootOpts, args[0], outDir, cmd)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory for the persisted record")
	return cmd
}

func runBuild(opts *RootOptions, path, outDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	rec, err := finalizeDescriptor(formatter, path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		formatter.Error("write", err.Error(), nil)
		return WrapExitError(ExitCommandError, "create output directory", err)
	}

	dest := filepath.Join(outDir, rec.ID()+".bst")
	tmp := filepath.Join(outDir, fmt.Sprintf(".%s.%s.tmp", rec.ID(), uuid.Must(uuid.NewV7()).String()))
	formatter.VerboseLog("writing %s via %s", dest, tmp)

	if err := store.Write(rec, tmp); err != nil {
		formatter.Error("write", err.Error(), nil)
		return WrapExitError(ExitCommandError, "write record", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		formatter.Error("write", err.Error(), nil)
		return WrapExitError(ExitCommandError, "move record into place", err)
	}

	if opts.Format == "json" {
		return formatter.Success(BuildResult{ID: rec.ID(), File: dest})
	}
	return formatter.Success(dest)
}
