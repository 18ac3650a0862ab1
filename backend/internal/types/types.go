package types

// Shared types used across csvops, tableio, ingest, etc.

type TableData struct {
	HasHeader bool       `json:"hasHeader"`
	Header    []string   `json:"header"`
	Rows      [][]string `json:"rows"`
}

// NamedTable is a table read from a named source (usually a file path).
type NamedTable struct {
	Name  string    `json:"name"`
	Table TableData `json:"table"`
}

type ResultSummary struct {
	Processed  int   `json:"processed" yaml:"processed"`
	Matched    int   `json:"matched" yaml:"matched"`
	Missing    int   `json:"missing" yaml:"missing"`
	Skipped    int   `json:"skipped" yaml:"skipped"`
	DurationMS int64 `json:"durationMs" yaml:"durationMs"`
}

// Key matching options shared by the index builder and the widener.
// Both sides must use the same options or lookups will miss.
type OpOptions struct {
	TrimSpaces         bool `json:"trim_spaces"`
	KeyCaseInsensitive bool `json:"key_case_insensitive"`
}
