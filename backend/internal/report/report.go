// Package report prints command results as terminal tables, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Data represents data formatted for table output.
type Data struct {
	Headers []string
	Rows    [][]string
}

// DetectFormat returns the explicit format if given, a table on a terminal
// and JSON when stdout is piped.
func DetectFormat(explicit string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(explicit))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return FormatTable, nil
		}
		return FormatJSON, nil
	default:
		return "", pkgerrors.NewConfigError("format", explicit, "must be table, json or yaml")
	}
}

// Write renders data as a table, or v as JSON/YAML.
func Write(w io.Writer, format Format, data Data, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return writeTable(w, data)
	}
}

func writeTable(w io.Writer, data Data) error {
	table := tablewriter.NewTable(w)

	if len(data.Headers) > 0 {
		headers := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}

	for _, row := range data.Rows {
		rowData := make([]any, len(row))
		for i, cell := range row {
			rowData[i] = cell
		}
		if err := table.Append(rowData...); err != nil {
			return err
		}
	}

	return table.Render()
}
