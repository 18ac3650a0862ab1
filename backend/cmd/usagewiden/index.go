package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/csvops"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/pipeline"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/report"
)

type resourceSummary struct {
	Resource string   `json:"resource" yaml:"resource"`
	Column   string   `json:"column" yaml:"column"`
	Periods  []string `json:"periods" yaml:"periods"`
}

func (a *app) newIndexCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the usage index and list the resources it found",
		Long: `index reads only the usage report and prints each distinct resource in
header order together with the periods recorded for it. Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.DetectFormat(format)
			if err != nil {
				return err
			}
			index, resources, err := pipeline.BuildIndex(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			data, summaries := a.resourceTable(index, resources)
			return report.Write(cmd.OutOrStdout(), f, data, summaries)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "table, json or yaml (default table on a terminal, json otherwise)")
	return cmd
}

func (a *app) resourceTable(index *csvops.UsageIndex, resources *csvops.ResourceSet) (report.Data, []resourceSummary) {
	opts := a.cfg.WidenOptions()
	names := resources.Ordered(opts.Order)
	header := csvops.WidenHeader(nil, names, opts.HeaderFiller)

	data := report.Data{Headers: []string{"Resource", "Column", "Periods", "Recorded"}}
	out := make([]resourceSummary, 0, len(names))
	for i, name := range names {
		periods := index.Periods(name)
		out = append(out, resourceSummary{Resource: name, Column: header[i], Periods: periods})
		data.Rows = append(data.Rows, []string{name, header[i], strconv.Itoa(len(periods)), strings.Join(periods, " ")})
	}
	return data, out
}
