package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKeyIndex(t *testing.T) {
	header := []string{"Database", "Platform", "Publisher", "Metric", " Month ", "Year"}

	tests := []struct {
		name    string
		key     string
		want    int
		wantErr bool
	}{
		{name: "by name", key: "Publisher", want: 2},
		{name: "case and space insensitive", key: "month", want: 4},
		{name: "numeric", key: "0", want: 0},
		{name: "numeric past header", key: "6", want: 6},
		{name: "unknown name", key: "Searches", wantErr: true},
		{name: "empty", key: "  ", wantErr: true},
		{name: "negative", key: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKeyIndex(header, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveKeyIndexNoHeader(t *testing.T) {
	_, err := ResolveKeyIndex(nil, "Month")
	assert.EqualError(t, err, "no header: key must be numeric index string")

	idx, err := ResolveKeyIndex(nil, "4")
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, " DB A ", Normalize(" DB A ", false, false))
	assert.Equal(t, "DB A", Normalize("  DB   A ", true, false))
	assert.Equal(t, "db a", Normalize("  DB   A ", true, true))
	assert.Equal(t, " db  a", Normalize(" DB  A", false, true))
}

func TestHeaderName(t *testing.T) {
	assert.Equal(t, "Fiscal_Year", HeaderName("Fiscal Year", "_"))
	assert.Equal(t, "_Page__Views_", HeaderName(" Page  Views ", "_"))
	assert.Equal(t, "Sessions", HeaderName("Sessions", "_"))
	assert.Equal(t, "Tab\tKept", HeaderName("Tab\tKept", "_"))
}
