// Package pipeline wires the index builder and the widener to files on disk.
package pipeline

import (
	"context"
	"fmt"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/config"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/csvops"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/ingest"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/tableio"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
)

// Result describes a completed merge run.
type Result struct {
	OutputPath string              `json:"output_path"`
	Header     []string            `json:"header"`
	Resources  []string            `json:"resources"`
	Summary    types.ResultSummary `json:"summary"`
}

// BuildIndex reads the usage file named by cfg and returns its index.
func BuildIndex(ctx context.Context, cfg *config.Config) (*csvops.UsageIndex, *csvops.ResourceSet, error) {
	src, err := tableio.Open(cfg.UsagePath, cfg.Encoding)
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	index, resources, err := csvops.BuildUsageIndex(ctx, src.Reader, cfg.IndexOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("build usage index: %w", err)
	}
	return index, resources, nil
}

// headerSink records the header on its way to the real sink.
type headerSink struct {
	tableio.Sink
	header []string
}

func (h *headerSink) WriteHeader(header []string) error {
	h.header = header
	return h.Sink.WriteHeader(header)
}

// Run builds the usage index, widens the master file and writes the result
// to cfg.OutputPath. The output only appears once the whole table has been
// written; on any error the previous output, if any, is left untouched.
func Run(ctx context.Context, cfg *config.Config) (Result, error) {
	log := logging.FromContext(ctx)
	if err := cfg.RequireMergePaths(); err != nil {
		return Result{}, err
	}

	index, resources, err := BuildIndex(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	src, err := tableio.Open(cfg.MasterPath, cfg.Encoding)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	out, err := tableio.CreateAtomic(cfg.OutputPath)
	if err != nil {
		return Result{}, err
	}
	defer out.Abort()

	opts := cfg.WidenOptions()
	var sinkOpts []tableio.SinkOption
	if opts.Fill == csvops.FillLegacy {
		sinkOpts = append(sinkOpts, tableio.WithCRLF())
	}
	sink, err := tableio.NewSink(out, cfg.OutputFormat, sinkOpts...)
	if err != nil {
		return Result{}, err
	}
	hs := &headerSink{Sink: sink}

	summary, err := csvops.Widen(ctx, src.Reader, hs, index, resources, opts)
	if err != nil {
		return Result{}, fmt.Errorf("widen %s: %w", cfg.MasterPath, err)
	}
	if err := sink.Flush(); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", cfg.OutputPath, err)
	}
	if err := out.Commit(); err != nil {
		return Result{}, err
	}

	log.Info().Str("output", cfg.OutputPath).Int("rows", summary.Processed).Msg("Wrote combined table")
	return Result{
		OutputPath: cfg.OutputPath,
		Header:     hs.header,
		Resources:  resources.Ordered(opts.Order),
		Summary:    summary,
	}, nil
}

// Check builds the usage index and cross-references the master key column
// against it without writing anything.
func Check(ctx context.Context, cfg *config.Config) (csvops.Coverage, error) {
	index, _, err := BuildIndex(ctx, cfg)
	if err != nil {
		return csvops.Coverage{}, err
	}

	src, err := tableio.Open(cfg.MasterPath, cfg.Encoding)
	if err != nil {
		return csvops.Coverage{}, err
	}
	defer src.Close()

	cov, err := csvops.CrossRef(ctx, src.Reader, index, cfg.WidenOptions())
	if err != nil {
		return csvops.Coverage{}, fmt.Errorf("check %s: %w", cfg.MasterPath, err)
	}
	return cov, nil
}

// HistoryFile summarises one history export.
type HistoryFile struct {
	Name    string          `json:"name" yaml:"name"`
	Columns int             `json:"columns" yaml:"columns"`
	Rows    int             `json:"rows" yaml:"rows"`
	Table   types.TableData `json:"-" yaml:"-"`
}

// History scans cfg.HistoryDir and reads every matching file.
func History(ctx context.Context, cfg *config.Config) ([]HistoryFile, error) {
	files, err := ingest.Scan(cfg.HistoryDir, cfg.HistoryPattern)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryFile, 0, len(files))
	err = ingest.Each(ctx, files, cfg.Encoding, func(nt types.NamedTable) error {
		out = append(out, HistoryFile{
			Name:    nt.Name,
			Columns: len(nt.Table.Header),
			Rows:    len(nt.Table.Rows),
			Table:   nt.Table,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
