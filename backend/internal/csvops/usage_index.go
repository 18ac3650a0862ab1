package csvops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/utils"
)

// RowSource yields the records of a table: a header first, then data rows
// until io.EOF. tableio.Reader implements it.
type RowSource interface {
	Name() string
	Line() int
	ReadHeader() ([]string, error)
	Read() ([]string, error)
}

// MalformedPolicy decides what happens to rows that are too short.
type MalformedPolicy string

const (
	MalformedFail MalformedPolicy = "fail"
	MalformedSkip MalformedPolicy = "skip"
)

type ResourceOrder string

const (
	OrderDiscovery    ResourceOrder = "discovery"
	OrderAlphabetical ResourceOrder = "alphabetical"
)

// UsageColumns locates the fields of a usage row. Each value is a header name
// or a numeric index string.
type UsageColumns struct {
	Name   string `json:"name_column" yaml:"name_column" mapstructure:"name_column"`
	Period string `json:"period_column" yaml:"period_column" mapstructure:"period_column"`
	Count  string `json:"count_column" yaml:"count_column" mapstructure:"count_column"`
}

// DefaultUsageColumns matches the monthly database report layout:
// name in field 0, month in field 4, searches in field 6.
func DefaultUsageColumns() UsageColumns {
	return UsageColumns{Name: "0", Period: "4", Count: "6"}
}

type IndexOptions struct {
	Columns     UsageColumns
	Match       types.OpOptions
	OnMalformed MalformedPolicy
}

// UsageKey is the composite (resource, period) lookup key.
type UsageKey struct {
	Resource string
	Period   string
}

// UsageIndex maps (resource, period) to the usage value recorded for it.
// Values are opaque text and are never parsed.
type UsageIndex struct {
	entries map[UsageKey]string
	match   types.OpOptions
}

func NewUsageIndex(match types.OpOptions) *UsageIndex {
	return &UsageIndex{entries: make(map[UsageKey]string), match: match}
}

func (ix *UsageIndex) key(resource, period string) UsageKey {
	return UsageKey{
		Resource: utils.Normalize(resource, ix.match.TrimSpaces, ix.match.KeyCaseInsensitive),
		Period:   utils.Normalize(period, ix.match.TrimSpaces, ix.match.KeyCaseInsensitive),
	}
}

// Set records usage for (resource, period), replacing any earlier value.
func (ix *UsageIndex) Set(resource, period, usage string) {
	ix.entries[ix.key(resource, period)] = usage
}

// Lookup returns the usage for (resource, period).
func (ix *UsageIndex) Lookup(resource, period string) (string, bool) {
	v, ok := ix.entries[ix.key(resource, period)]
	return v, ok
}

func (ix *UsageIndex) Len() int { return len(ix.entries) }

// Periods returns the sorted periods recorded for resource.
func (ix *UsageIndex) Periods(resource string) []string {
	want := ix.key(resource, "").Resource
	var out []string
	for k := range ix.entries {
		if k.Resource == want {
			out = append(out, k.Period)
		}
	}
	sort.Strings(out)
	return out
}

// ResourceSet holds the distinct resource names in the order they were first seen.
type ResourceSet struct {
	names []string
	seen  map[string]struct{}
	match types.OpOptions
}

func NewResourceSet(match types.OpOptions) *ResourceSet {
	return &ResourceSet{seen: make(map[string]struct{}), match: match}
}

// Add inserts name and reports whether it was new. Names equal under the
// match options collapse onto the first spelling seen.
func (s *ResourceSet) Add(name string) bool {
	k := utils.Normalize(name, s.match.TrimSpaces, s.match.KeyCaseInsensitive)
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.names = append(s.names, name)
	return true
}

func (s *ResourceSet) Contains(name string) bool {
	_, ok := s.seen[utils.Normalize(name, s.match.TrimSpaces, s.match.KeyCaseInsensitive)]
	return ok
}

func (s *ResourceSet) Len() int { return len(s.names) }

// Names returns a copy of the names in discovery order.
func (s *ResourceSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Ordered returns the names in the requested order. Alphabetical order is
// case-insensitive with a byte-order tie break so it is total.
func (s *ResourceSet) Ordered(order ResourceOrder) []string {
	names := s.Names()
	if order == OrderAlphabetical {
		slices.SortStableFunc(names, func(a, b string) int {
			if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
	}
	return names
}

// BuildUsageIndex consumes src and returns the usage lookup and the set of
// resource names. The header row is discarded. Rows are applied in file
// order, so a repeated (resource, period) keeps its last value.
func BuildUsageIndex(ctx context.Context, src RowSource, opts IndexOptions) (*UsageIndex, *ResourceSet, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	cols := opts.Columns
	if cols == (UsageColumns{}) {
		cols = DefaultUsageColumns()
	}

	header, err := src.ReadHeader()
	if err != nil {
		return nil, nil, fmt.Errorf("usage header: %w", err)
	}

	nameIdx, err := utils.ResolveKeyIndex(header, cols.Name)
	if err != nil {
		return nil, nil, pkgerrors.NewNotFoundError("usage name column", cols.Name, err)
	}
	periodIdx, err := utils.ResolveKeyIndex(header, cols.Period)
	if err != nil {
		return nil, nil, pkgerrors.NewNotFoundError("usage period column", cols.Period, err)
	}
	countIdx, err := utils.ResolveKeyIndex(header, cols.Count)
	if err != nil {
		return nil, nil, pkgerrors.NewNotFoundError("usage count column", cols.Count, err)
	}
	required := max(nameIdx, periodIdx, countIdx) + 1

	index := NewUsageIndex(opts.Match)
	resources := NewResourceSet(opts.Match)
	var summary types.ResultSummary

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		row, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		summary.Processed++

		if len(row) < required {
			mre := pkgerrors.NewMalformedRowError(src.Name(), src.Line(), len(row), required)
			if opts.OnMalformed != MalformedSkip {
				return nil, nil, mre
			}
			log.Warn().Err(mre).Msg("Skipping usage row")
			summary.Skipped++
			continue
		}

		resources.Add(row[nameIdx])
		index.Set(row[nameIdx], row[periodIdx], row[countIdx])
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	log.Info().
		Str("source", src.Name()).
		Int("rows", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("keys", index.Len()).
		Int("resources", resources.Len()).
		Int64("duration_ms", summary.DurationMS).
		Msg("Built usage index")

	return index, resources, nil
}
