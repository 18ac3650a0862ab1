package csvops

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/tableio"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
)

const masterCSV = `Month,Fiscal Year,Page Views

Jan,2017,100
Feb,2017,120

Mar,2017,90
`

// collectSink keeps the widened table in memory.
type collectSink struct {
	header  []string
	rows    [][]string
	headers int
}

func (s *collectSink) WriteHeader(h []string) error {
	s.headers++
	s.header = h
	return nil
}

func (s *collectSink) WriteRow(r []string) error {
	s.rows = append(s.rows, r)
	return nil
}

func widen(t *testing.T, ctx context.Context, master string, opts WidenOptions) (*collectSink, types.ResultSummary, error) {
	t.Helper()
	index, resources, err := buildIndex(t, db1Report, IndexOptions{})
	require.NoError(t, err)
	sink := &collectSink{}
	sum, err := Widen(ctx, tableio.NewReader("master.csv", strings.NewReader(master)), sink, index, resources, opts)
	return sink, sum, err
}

func TestWiden(t *testing.T) {
	sink, sum, err := widen(t, context.Background(), masterCSV, WidenOptions{})
	require.NoError(t, err)

	wantHeader := []string{"Month", "Fiscal_Year", "Page_Views", "DB_A", "Beta_DB"}
	assert.Equal(t, wantHeader, sink.header)
	assert.Equal(t, 1, sink.headers, "header written once")

	wantRows := [][]string{
		{"Jan", "2017", "100", "7", "12"},
		{"Feb", "2017", "120", "9", ""},
		{"Mar", "2017", "90", "", ""},
	}
	if diff := cmp.Diff(wantRows, sink.rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	for _, r := range sink.rows {
		assert.Len(t, r, len(sink.header))
	}

	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 3, sum.Matched)
	assert.Equal(t, 3, sum.Missing)
}

func TestWidenNullMarkerAndOrder(t *testing.T) {
	sink, _, err := widen(t, context.Background(), masterCSV, WidenOptions{
		NullMarker: "NA",
		Order:      OrderAlphabetical,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Month", "Fiscal_Year", "Page_Views", "Beta_DB", "DB_A"}, sink.header)
	assert.Equal(t, []string{"Mar", "2017", "90", "NA", "NA"}, sink.rows[2])
	assert.Equal(t, []string{"Jan", "2017", "100", "12", "7"}, sink.rows[0])
}

func TestWidenLegacyFill(t *testing.T) {
	sink, sum, err := widen(t, context.Background(), "Month,DB_A\nJan,x\n", WidenOptions{Fill: FillLegacy})
	require.NoError(t, err)

	// header: Month, DB_A (master) + DB_A, Beta_DB (resources); one cell per header entry
	assert.Equal(t, []string{"Month", "DB_A", "DB_A", "Beta_DB"}, sink.header)
	assert.Equal(t, []string{"Jan", "x", "", "7", "7", "12"}, sink.rows[0])
	assert.Len(t, sink.rows[0], 2+len(sink.header))
	assert.Equal(t, 3, sum.Matched)
	assert.Equal(t, 1, sum.Missing)
}

func TestWidenKeyColumn(t *testing.T) {
	sink, _, err := widen(t, context.Background(), "Year,Month\n2017,Feb\n", WidenOptions{KeyColumn: "Month"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2017", "Feb", "9", ""}, sink.rows[0])
}

func TestWidenMalformedMaster(t *testing.T) {
	master := "Year,Month\n2017\n2017,Feb\n"

	_, _, err := widen(t, context.Background(), master, WidenOptions{KeyColumn: "1"})
	assert.True(t, pkgerrors.IsMalformedRow(err))

	sink, sum, err := widen(t, context.Background(), master, WidenOptions{KeyColumn: "1", OnMalformed: MalformedSkip})
	require.NoError(t, err)
	assert.Len(t, sink.rows, 1)
	assert.Equal(t, 1, sum.Skipped)
}

func TestWidenEmptyMaster(t *testing.T) {
	_, _, err := widen(t, context.Background(), "", WidenOptions{})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestWidenLogsMisses(t *testing.T) {
	tl := logging.NewTestLogger(t)
	_, _, err := widen(t, tl.Context(context.Background()), "Month\nMar\n", WidenOptions{})
	require.NoError(t, err)
	assert.True(t, tl.Contains("No usage recorded"))
	assert.True(t, tl.Contains(`"key":"Mar"`))
	assert.True(t, tl.Contains("Widened master table"))
}

func TestWidenRowDoesNotMutateInput(t *testing.T) {
	index := NewUsageIndex(types.OpOptions{})
	index.Set("DB_A", "Jan", "5")
	row := make([]string, 2, 8)
	row[0], row[1] = "Jan", "x"

	out, st := widenRow(&logging.Nop, row, row[0], []string{"DB_A", "DB_B"}, index, "")
	assert.Equal(t, []string{"Jan", "x", "5", ""}, out)
	assert.Equal(t, cellStats{matched: 1, missing: 1}, st)
	assert.Equal(t, []string{"Jan", "x"}, row)
	assert.Equal(t, "", row[:3][2], "spare capacity of the input is not written")
}

func TestWidenToCSVIsDeterministic(t *testing.T) {
	run := func() string {
		index, resources, err := buildIndex(t, db1Report, IndexOptions{})
		require.NoError(t, err)
		var buf bytes.Buffer
		sink := tableio.NewCSVSink(&buf)
		_, err = Widen(context.Background(), tableio.NewReader("master.csv", strings.NewReader(masterCSV)), sink, index, resources, WidenOptions{})
		require.NoError(t, err)
		require.NoError(t, sink.Flush())
		return buf.String()
	}
	first := run()
	assert.Equal(t, first, run())
	assert.Equal(t, "Month,Fiscal_Year,Page_Views,DB_A,Beta_DB\nJan,2017,100,7,12\nFeb,2017,120,9,\nMar,2017,90,,\n", first)
}

func TestWidenHeader(t *testing.T) {
	header := []string{"Fiscal Year", "Sessions"}
	got := WidenHeader(header, []string{"Beta DB"}, "_")
	assert.Equal(t, []string{"Fiscal_Year", "Sessions", "Beta_DB"}, got)
	assert.Equal(t, "Fiscal Year", header[0], "input untouched")
}
