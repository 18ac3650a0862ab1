package csvops

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/utils"
)

// Coverage cross-references the master key column against the periods in a
// usage index.
type Coverage struct {
	Summary types.ResultSummary `json:"summary" yaml:"summary"`
	// Matched are master keys with usage for at least one resource, in master order.
	Matched []string `json:"matched" yaml:"matched"`
	// Missing are master keys with no usage for any resource, in master order.
	Missing []string `json:"missing" yaml:"missing"`
	// Unused are periods in the index that no master row refers to, sorted.
	Unused []string `json:"unused" yaml:"unused"`
}

// CrossRef reads the master table from src and reports which row keys the
// usage index covers. Repeated keys are reported once. Short rows follow
// opts.OnMalformed like Widen does.
func CrossRef(ctx context.Context, src RowSource, index *UsageIndex, opts WidenOptions) (Coverage, error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	opts = opts.withDefaults()

	cov := Coverage{Matched: []string{}, Missing: []string{}, Unused: []string{}}

	header, err := src.ReadHeader()
	if err != nil {
		return cov, err
	}
	keyIdx, err := utils.ResolveKeyIndex(header, opts.KeyColumn)
	if err != nil {
		return cov, pkgerrors.NewNotFoundError("master key column", opts.KeyColumn, err)
	}

	// normalized period -> referenced by master
	periods := make(map[string]bool)
	for k := range index.entries {
		periods[k.Period] = false
	}

	seen := make(map[string]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return cov, err
		}
		row, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cov, err
		}
		cov.Summary.Processed++

		if keyIdx >= len(row) {
			mre := pkgerrors.NewMalformedRowError(src.Name(), src.Line(), len(row), keyIdx+1)
			if opts.OnMalformed != MalformedSkip {
				return cov, mre
			}
			log.Warn().Err(mre).Msg("Skipping master row")
			cov.Summary.Skipped++
			continue
		}

		key := row[keyIdx]
		norm := index.key("", key).Period
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}

		if _, ok := periods[norm]; ok {
			periods[norm] = true
			cov.Matched = append(cov.Matched, key)
			cov.Summary.Matched++
		} else {
			cov.Missing = append(cov.Missing, key)
			cov.Summary.Missing++
		}
	}

	for p, used := range periods {
		if !used {
			cov.Unused = append(cov.Unused, p)
		}
	}
	sort.Strings(cov.Unused)

	cov.Summary.DurationMS = time.Since(start).Milliseconds()
	return cov, nil
}
