// Package source loads the ordered subject list from a CSV or XLSX file.
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/model"
)

// NameColumn is the header carrying the subject name.
const NameColumn = "Nome_Fantasia"

const bom = "\ufeff"

// Options configures Load.
type Options struct {
	// Column overrides NameColumn.
	Column string
	// Sheet selects an XLSX sheet by name; the first sheet is used when empty.
	Sheet string
	// Delimiter overrides the CSV field separator.
	Delimiter rune
}

// Load reads subject names from path in file order. Values are trimmed and
// blank values skipped. Duplicates are kept.
func Load(ctx context.Context, path string, opts Options) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(model.ErrSourceNotFound, "source: %s", path)
		}
		return nil, eris.Wrapf(err, "source: stat %s", path)
	}
	col := opts.Column
	if col == "" {
		col = NameColumn
	}

	var (
		rows <-chan []string
		errs <-chan error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, errs = StreamXLSX(ctx, path, opts.Sheet)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "source: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		rows, errs = StreamCSV(ctx, f, opts.Delimiter)
	}

	names, err := collect(rows, errs, col)
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s", path)
	}
	zap.L().Info("source: loaded subjects", zap.String("path", path), zap.Int("count", len(names)))
	return names, nil
}

// collect drains rows, treating the first as the header.
func collect(rows <-chan []string, errs <-chan error, col string) ([]string, error) {
	idx := -1
	var names []string
	first := true
	for row := range rows {
		if first {
			first = false
			colIdx := headerIndex(row)
			i, ok := colIdx[col]
			if !ok {
				// Keep draining so the producer goroutine can exit.
				for range rows {
				}
				return nil, eris.Errorf("missing required column %q", col)
			}
			idx = i
			continue
		}
		if v := getCol(row, idx); v != "" {
			names = append(names, v)
		}
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	if first {
		return nil, eris.Errorf("missing required column %q", col)
	}
	return names, nil
}

func headerIndex(header []string) map[string]int {
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		colIdx[strings.TrimSpace(h)] = i
	}
	return colIdx
}

func getCol(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
