package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/pipeline"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/report"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		format string
		rows   bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Summarise the historical analytics exports",
		Long: `history lists the files in history_dir whose names match history_pattern
(default "Analytics*") with their column and row counts. With --rows every
file is printed in full.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.DetectFormat(format)
			if err != nil {
				return err
			}
			files, err := pipeline.History(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !rows {
				data := report.Data{Headers: []string{"File", "Columns", "Rows"}}
				for _, hf := range files {
					data.Rows = append(data.Rows, []string{hf.Name, strconv.Itoa(hf.Columns), strconv.Itoa(hf.Rows)})
				}
				return report.Write(w, f, data, files)
			}

			for _, hf := range files {
				if f == report.FormatTable {
					if _, err := fmt.Fprintf(w, "%s\n", hf.Name); err != nil {
						return err
					}
				}
				data := report.Data{Headers: hf.Table.Header, Rows: hf.Table.Rows}
				if err := report.Write(w, f, data, hf.Table); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "table, json or yaml (default table on a terminal, json otherwise)")
	cmd.Flags().BoolVar(&rows, "rows", false, "print the rows of every file")
	return cmd
}
