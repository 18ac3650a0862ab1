package tableio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Sink receives a table one row at a time. WriteHeader is called once, before any row.
type Sink interface {
	WriteHeader(header []string) error
	WriteRow(row []string) error
	Flush() error
}

type sinkConfig struct {
	crlf bool
}

// SinkOption configures NewSink.
type SinkOption func(*sinkConfig)

// WithCRLF ends CSV records with \r\n. JSON output ignores it.
func WithCRLF() SinkOption {
	return func(c *sinkConfig) { c.crlf = true }
}

// NewSink returns a Sink writing format to w.
func NewSink(w io.Writer, format string, opts ...SinkOption) (Sink, error) {
	var cfg sinkConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	switch strings.ToLower(format) {
	case "", FormatCSV:
		s := NewCSVSink(w)
		s.w.UseCRLF = cfg.crlf
		return s, nil
	case FormatJSON:
		return NewJSONSink(w), nil
	default:
		return nil, pkgerrors.NewConfigError("output_format", format, "must be csv or json")
	}
}

// CSVSink streams rows to an encoding/csv writer.
type CSVSink struct {
	w *csv.Writer
}

func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

func (s *CSVSink) WriteHeader(header []string) error { return s.w.Write(header) }

func (s *CSVSink) WriteRow(row []string) error { return s.w.Write(row) }

func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

// JSONSink collects rows and encodes them as a TableData document on Flush.
type JSONSink struct {
	w     io.Writer
	table types.TableData
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, table: types.TableData{Rows: [][]string{}}}
}

func (s *JSONSink) WriteHeader(header []string) error {
	s.table.HasHeader = true
	s.table.Header = append([]string(nil), header...)
	return nil
}

func (s *JSONSink) WriteRow(row []string) error {
	s.table.Rows = append(s.table.Rows, append([]string(nil), row...))
	return nil
}

func (s *JSONSink) Flush() error {
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.table)
}

// AtomicFile is written under a temporary name in the destination directory
// and only takes the destination name on Commit, so a failed run never leaves
// a partial output behind.
type AtomicFile struct {
	*os.File
	path      string
	committed bool
}

// CreateAtomic starts writing a file that will become path on Commit.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output in %s: %w", dir, err)
	}
	return &AtomicFile{File: tmp, path: path}, nil
}

// Commit syncs, closes and renames the temporary file onto the destination.
func (a *AtomicFile) Commit() error {
	if err := a.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", a.Name(), err)
	}
	if err := a.Close(); err != nil {
		return fmt.Errorf("close %s: %w", a.Name(), err)
	}
	if err := os.Chmod(a.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", a.Name(), err)
	}
	if err := os.Rename(a.Name(), a.path); err != nil {
		return fmt.Errorf("rename to %s: %w", a.path, err)
	}
	a.committed = true
	return nil
}

// Abort discards the temporary file. It is a no-op after a successful Commit,
// so it is safe to defer right after CreateAtomic.
func (a *AtomicFile) Abort() {
	if a.committed {
		return
	}
	_ = a.Close()
	_ = os.Remove(a.Name())
}
