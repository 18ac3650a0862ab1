package main

import (
	"github.com/spf13/cobra"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/pipeline"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/report"
)

func (a *app) newCheckCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report master keys without usage and usage periods the master never uses",
		Long: `check builds the usage index and compares the master key column against
the periods it contains. Keys listed as missing will get null in every
resource column; unused periods will not appear in the output at all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.DetectFormat(format)
			if err != nil {
				return err
			}
			cov, err := pipeline.Check(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}

			data := report.Data{Headers: []string{"Key", "Status"}}
			for _, k := range cov.Matched {
				data.Rows = append(data.Rows, []string{k, "matched"})
			}
			for _, k := range cov.Missing {
				data.Rows = append(data.Rows, []string{k, "missing"})
			}
			for _, k := range cov.Unused {
				data.Rows = append(data.Rows, []string{k, "unused"})
			}
			return report.Write(cmd.OutOrStdout(), f, data, cov)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "table, json or yaml (default table on a terminal, json otherwise)")
	return cmd
}
