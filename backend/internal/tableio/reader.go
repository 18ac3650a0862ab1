// Package tableio reads and writes the delimited tables the pipeline works on.
//
// Blank lines are skipped on input, the first remaining record is the header,
// and every record is returned as plain text: no type inference is done.
package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
)

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "latin1"
)

// Encodings lists the accepted values for the encoding setting.
var Encodings = []string{EncodingUTF8, EncodingWindows1252, EncodingLatin1}

// Decode wraps r so it yields UTF-8 text. UTF-8 input has a leading BOM
// stripped, which spreadsheet exports usually carry.
func Decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	default:
		return nil, pkgerrors.NewConfigError("encoding", encoding, "unsupported encoding")
	}
}

// Reader yields the non-blank records of a delimited table.
type Reader struct {
	name string
	csv  *csv.Reader
	line int
}

// NewReader returns a Reader over r. name is used in error messages.
func NewReader(name string, r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// rows may be ragged; width checks belong to the callers
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &Reader{name: name, csv: cr}
}

// Name returns the source name given to NewReader.
func (r *Reader) Name() string { return r.name }

// Line returns the input line of the record most recently returned by Read.
func (r *Reader) Line() int { return r.line }

// Read returns the next record, or io.EOF at the end of input.
// encoding/csv already drops empty lines, which is the blank-line rule.
func (r *Reader) Read() ([]string, error) {
	rec, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read %s: %w", r.name, err)
	}
	r.line, _ = r.csv.FieldPos(0)
	return rec, nil
}

// ReadHeader reads the first record. An empty input yields a nil header and no error.
func (r *Reader) ReadHeader() ([]string, error) {
	h, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return h, err
}

// Source is a Reader bound to an open file.
type Source struct {
	*Reader
	f *os.File
}

// Open opens path for reading through the given encoding.
func Open(path, encoding string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pkgerrors.NewNotFoundError("table", path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	dec, err := Decode(f, encoding)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Source{Reader: NewReader(path, dec), f: f}, nil
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}

// ReadTable reads a whole table: the header and every data row.
func ReadTable(r *Reader) (types.TableData, error) {
	header, err := r.ReadHeader()
	if err != nil {
		return types.TableData{}, err
	}
	tbl := types.TableData{
		HasHeader: header != nil,
		Header:    header,
		Rows:      [][]string{},
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return tbl, nil
		}
		if err != nil {
			return types.TableData{}, err
		}
		tbl.Rows = append(tbl.Rows, rec)
	}
}

// ReadFile opens path and reads it as a table.
func ReadFile(path, encoding string) (types.TableData, error) {
	src, err := Open(path, encoding)
	if err != nil {
		return types.TableData{}, err
	}
	defer src.Close()
	return ReadTable(src.Reader)
}
