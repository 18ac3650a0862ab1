package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
)

type resourceRow struct {
	Resource string `json:"resource" yaml:"resource"`
	Periods  int    `json:"periods" yaml:"periods"`
}

var sample = Data{
	Headers: []string{"Resource", "Periods"},
	Rows:    [][]string{{"DB_A", "2"}, {"Beta DB", "1"}},
}

var sampleValue = []resourceRow{{"DB_A", 2}, {"Beta DB", 1}}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = DetectFormat("xml")
	assert.True(t, pkgerrors.IsConfigError(err))

	// go test runs with stdout redirected
	f, err = DetectFormat("")
	require.NoError(t, err)
	assert.Contains(t, []Format{FormatTable, FormatJSON}, f)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, sample, sampleValue))
	out := buf.String()
	assert.Contains(t, out, "DB_A")
	assert.Contains(t, out, "Beta DB")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample, sampleValue))
	assert.JSONEq(t, `[{"resource":"DB_A","periods":2},{"resource":"Beta DB","periods":1}]`, buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sample, sampleValue))
	assert.Contains(t, buf.String(), "resource: DB_A")
	assert.Contains(t, buf.String(), "periods: 1")
}
