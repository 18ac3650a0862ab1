package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/pipeline"
)

func (a *app) newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Build the usage index and write the widened master table",
		Args:  cobra.NoArgs,
		RunE:  a.runMerge,
	}
	addMergeFlags(cmd.Flags())
	return cmd
}

// mergeFlagKeys maps config keys to the merge flags. The root command carries
// the same flags, so they are bound per invocation in setup.
var mergeFlagKeys = map[string]string{
	"output_path":    "output",
	"output_format":  "format",
	"fill_mode":      "fill-mode",
	"null_marker":    "null",
	"resource_order": "order",
	"on_malformed":   "on-malformed",
}

// isMergeCmd reports whether cmd carries the merge flags. Other commands
// define their own --format for report output, which is not output_format.
func isMergeCmd(cmd *cobra.Command) bool {
	return cmd.Flags().Lookup("fill-mode") != nil
}

func addMergeFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "", "output path")
	fs.String("format", "", "output format: csv or json")
	fs.String("fill-mode", "", "resource (one cell per resource) or legacy (one cell per header entry)")
	fs.String("null", "", "value written when no usage is recorded")
	fs.String("order", "", "resource column order: discovery or alphabetical")
	fs.String("on-malformed", "", "short rows: fail or skip")
}

func (a *app) runMerge(cmd *cobra.Command, _ []string) error {
	res, err := pipeline.Run(cmd.Context(), a.cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rows, %d resource columns (%d matched, %d missing)\n",
		res.OutputPath, res.Summary.Processed, len(res.Resources), res.Summary.Matched, res.Summary.Missing)
	return err
}
