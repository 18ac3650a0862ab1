package csvops

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/tableio"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
)

func TestCrossRef(t *testing.T) {
	index := NewUsageIndex(types.OpOptions{})
	index.Set("DB_A", "Jan", "5")
	index.Set("DB_B", "Feb", "3")
	index.Set("DB_B", "Apr", "1")
	index.Set("DB_A", "May", "2")

	master := "Month,Sessions\nJan,1\nMar,2\nJan,3\nFeb,4\n"
	cov, err := CrossRef(context.Background(), tableio.NewReader("master.csv", strings.NewReader(master)), index, WidenOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Jan", "Feb"}, cov.Matched)
	assert.Equal(t, []string{"Mar"}, cov.Missing)
	assert.Equal(t, []string{"Apr", "May"}, cov.Unused)
	assert.Equal(t, 4, cov.Summary.Processed)
	assert.Equal(t, 2, cov.Summary.Matched)
	assert.Equal(t, 1, cov.Summary.Missing)
}

func TestCrossRefCaseInsensitive(t *testing.T) {
	index := NewUsageIndex(types.OpOptions{KeyCaseInsensitive: true})
	index.Set("DB_A", "JAN", "5")

	cov, err := CrossRef(context.Background(), tableio.NewReader("master.csv", strings.NewReader("Month\njan\n")), index, WidenOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"jan"}, cov.Matched)
	assert.Empty(t, cov.Unused)
}

func TestCrossRefMalformed(t *testing.T) {
	index := NewUsageIndex(types.OpOptions{})
	master := "Year,Month\n2017\n2017,Jan\n"

	_, err := CrossRef(context.Background(), tableio.NewReader("master.csv", strings.NewReader(master)), index, WidenOptions{KeyColumn: "Month"})
	assert.True(t, pkgerrors.IsMalformedRow(err))

	cov, err := CrossRef(context.Background(), tableio.NewReader("master.csv", strings.NewReader(master)), index, WidenOptions{KeyColumn: "Month", OnMalformed: MalformedSkip})
	require.NoError(t, err)
	assert.Equal(t, 1, cov.Summary.Skipped)
	assert.Equal(t, []string{"Jan"}, cov.Missing)
}
