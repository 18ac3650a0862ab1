// Package ingest reads the directory of historical analytics exports.
// It is independent of the widening pass: each file comes back as its own table.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/tableio"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
)

// DefaultPattern matches the analytics export file names.
const DefaultPattern = "Analytics*"

// File is one matched history file.
type File struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Scan lists the regular files directly inside dir whose base name matches
// pattern, sorted by name. Subdirectories are not searched.
func Scan(dir, pattern string) ([]File, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, pkgerrors.NewConfigError("history_pattern", pattern, err.Error())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pkgerrors.NewNotFoundError("history directory", dir, err)
		}
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var files []File
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		// pattern was validated above
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			files = append(files, File{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Each reads files in order and hands every table to fn. It stops at the
// first read error or the first error returned by fn.
func Each(ctx context.Context, files []File, encoding string, fn func(types.NamedTable) error) error {
	log := logging.FromContext(ctx)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		tbl, err := tableio.ReadFile(f.Path, encoding)
		if err != nil {
			return fmt.Errorf("history file %s: %w", f.Name, err)
		}
		log.Debug().Str("file", f.Name).Int("rows", len(tbl.Rows)).Msg("Read history file")
		if err := fn(types.NamedTable{Name: f.Name, Table: tbl}); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll reads every file into memory.
func ReadAll(ctx context.Context, files []File, encoding string) ([]types.NamedTable, error) {
	out := make([]types.NamedTable, 0, len(files))
	err := Each(ctx, files, encoding, func(nt types.NamedTable) error {
		out = append(out, nt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
