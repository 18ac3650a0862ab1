package csvops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/utils"
)

// FillMode selects how resource cells are appended to each master row.
type FillMode string

const (
	// FillResource appends exactly one cell per resource column.
	FillResource FillMode = "resource"
	// FillLegacy appends one cell per header entry, original columns included,
	// matching files produced by the old consolidation script. CSV output in
	// this mode ends records with \r\n like that script did.
	FillLegacy FillMode = "legacy"
)

// RowSink receives the widened table. tableio.Sink implements it.
type RowSink interface {
	WriteHeader(header []string) error
	WriteRow(row []string) error
}

type WidenOptions struct {
	KeyColumn    string // header name or index of the period key in master rows
	NullMarker   string
	HeaderFiller string
	Order        ResourceOrder
	Fill         FillMode
	OnMalformed  MalformedPolicy
}

func (o WidenOptions) withDefaults() WidenOptions {
	if o.KeyColumn == "" {
		o.KeyColumn = "0"
	}
	if o.HeaderFiller == "" {
		o.HeaderFiller = "_"
	}
	if o.Order == "" {
		o.Order = OrderDiscovery
	}
	if o.Fill == "" {
		o.Fill = FillResource
	}
	return o
}

// WidenHeader returns header followed by resources, with spaces in every
// name replaced by filler. The inputs are not modified.
func WidenHeader(header, resources []string, filler string) []string {
	out := make([]string, 0, len(header)+len(resources))
	for _, h := range header {
		out = append(out, utils.HeaderName(h, filler))
	}
	for _, r := range resources {
		out = append(out, utils.HeaderName(r, filler))
	}
	return out
}

// cellStats counts lookups for one row.
type cellStats struct {
	matched int
	missing int
}

// widenRow appends one cell per name in columns to a copy of row, looking up
// (name, key) in index and writing null on a miss.
func widenRow(log *zerolog.Logger, row []string, key string, columns []string, index *UsageIndex, null string) ([]string, cellStats) {
	var st cellStats
	out := make([]string, len(row), len(row)+len(columns))
	copy(out, row)
	for _, col := range columns {
		if v, ok := index.Lookup(col, key); ok {
			out = append(out, v)
			st.matched++
			continue
		}
		st.missing++
		log.Debug().Str("column", col).Str("key", key).Msg("No usage recorded")
		out = append(out, null)
	}
	return out, st
}

// Widen streams src to sink: the widened header once, then every data row
// with its resource cells filled from index. Lookup misses produce
// opts.NullMarker and never stop the pass.
func Widen(ctx context.Context, src RowSource, sink RowSink, index *UsageIndex, resources *ResourceSet, opts WidenOptions) (types.ResultSummary, error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	opts = opts.withDefaults()

	var summary types.ResultSummary

	header, err := src.ReadHeader()
	if err != nil {
		return summary, fmt.Errorf("master header: %w", err)
	}
	if header == nil {
		return summary, fmt.Errorf("master table %s has no header: %w", src.Name(), pkgerrors.ErrInvalidInput)
	}

	keyIdx, err := utils.ResolveKeyIndex(header, opts.KeyColumn)
	if err != nil {
		return summary, pkgerrors.NewNotFoundError("master key column", opts.KeyColumn, err)
	}

	names := resources.Ordered(opts.Order)
	outHeader := WidenHeader(header, names, opts.HeaderFiller)

	// columns probed per row, in raw (pre-normalization) spelling
	columns := names
	if opts.Fill == FillLegacy {
		columns = append(append([]string(nil), header...), names...)
	}

	if err := sink.WriteHeader(outHeader); err != nil {
		return summary, fmt.Errorf("write header: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		row, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, err
		}
		summary.Processed++

		if keyIdx >= len(row) {
			mre := pkgerrors.NewMalformedRowError(src.Name(), src.Line(), len(row), keyIdx+1)
			if opts.OnMalformed != MalformedSkip {
				return summary, mre
			}
			log.Warn().Err(mre).Msg("Skipping master row")
			summary.Skipped++
			continue
		}

		out, st := widenRow(log, row, row[keyIdx], columns, index, opts.NullMarker)
		summary.Matched += st.matched
		summary.Missing += st.missing

		if err := sink.WriteRow(out); err != nil {
			return summary, fmt.Errorf("write row %d: %w", summary.Processed, err)
		}
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	log.Info().
		Str("source", src.Name()).
		Int("rows", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("columns", len(outHeader)).
		Int("matched", summary.Matched).
		Int("missing", summary.Missing).
		Str("fill_mode", string(opts.Fill)).
		Int64("duration_ms", summary.DurationMS).
		Msg("Widened master table")

	return summary, nil
}
