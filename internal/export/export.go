// Package export writes stored contact records to timestamped CSV or XLSX files.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/store"
)

// ErrNothingToExport means the query matched no records; no file is written.
var ErrNothingToExport = eris.New("export: no records to export")

// Format is the output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	filteredPrefix = "extractmogi_export"
	fullPrefix     = "extractmogi_full_export"
	stampLayout    = "20060102_150405"
	dateLayout     = "02/01/2006 15:04:05"
	sheetName      = "extract_mogi"
	utf8BOM        = "\ufeff"
)

// Columns is the ordered header of every export.
var Columns = []string{
	"Nome Empresa",
	"Telefone",
	"Celular/WhatsApp",
	"Facebook",
	"Email",
	"Site",
	"Data Extração",
}

// Config controls where and how files are written.
type Config struct {
	Dir    string
	Format Format
	// Location renders the extraction timestamp; time.Local when nil.
	Location *time.Location
}

// Result describes a written export.
type Result struct {
	Path string
	Rows int
}

// Exporter reads from a Repository and writes export files.
type Exporter struct {
	repo store.Repository
	cfg  Config
	now  func() time.Time
}

// New builds an Exporter. Dir defaults to "exports" and Format to CSV.
func New(repo store.Repository, cfg Config) *Exporter {
	if cfg.Dir == "" {
		cfg.Dir = "exports"
	}
	if cfg.Format == "" {
		cfg.Format = FormatCSV
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Exporter{repo: repo, cfg: cfg, now: time.Now}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// ExportWithURIFilter writes only records with a website or a social link.
func (e *Exporter) ExportWithURIFilter(ctx context.Context) (Result, error) {
	return e.export(ctx, store.Filter{HasURI: true}, filteredPrefix)
}

// ExportAll writes every stored record.
func (e *Exporter) ExportAll(ctx context.Context) (Result, error) {
	return e.export(ctx, store.Filter{}, fullPrefix)
}

// Stats returns the counts shown before exporting.
func (e *Exporter) Stats(ctx context.Context) (store.Stats, error) {
	return e.repo.Stats(ctx)
}

func (e *Exporter) export(ctx context.Context, f store.Filter, prefix string) (Result, error) {
	records, err := e.repo.Query(ctx, f)
	if err != nil {
		return Result{}, eris.Wrap(err, "export: query records")
	}
	if len(records) == 0 {
		zap.L().Warn("export: nothing to export", zap.Bool("uri_filter", f.HasURI))
		return Result{}, ErrNothingToExport
	}

	if err := os.MkdirAll(e.cfg.Dir, 0o755); err != nil {
		return Result{}, eris.Wrapf(err, "export: create dir %s", e.cfg.Dir)
	}
	path := filepath.Join(e.cfg.Dir, prefix+"_"+e.now().Format(stampLayout)+"."+string(e.cfg.Format))

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, e.row(r))
	}

	write := writeCSV
	if e.cfg.Format == FormatXLSX {
		write = writeXLSX
	}
	if err := writeFile(path, rows, write); err != nil {
		return Result{}, err
	}

	zap.L().Info("export: wrote file", zap.String("path", path), zap.Int("rows", len(rows)))
	return Result{Path: path, Rows: len(rows)}, nil
}

func (e *Exporter) row(r model.ContactRecord) []string {
	date := ""
	if !r.ExtractedAt.IsZero() {
		date = r.ExtractedAt.In(e.cfg.Location).Format(dateLayout)
	}
	return []string{
		r.SubjectName,
		r.Phone,
		r.MessagingNumber,
		r.SocialLink,
		r.Email,
		r.Website,
		date,
	}
}

// writeFile runs write and removes whatever it left at path on failure.
func writeFile(path string, rows [][]string, write func(string, [][]string) error) error {
	if err := write(path, rows); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			zap.L().Warn("export: remove partial file", zap.String("path", path), zap.Error(rmErr))
		}
		return err
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.WriteString(utf8BOM); err != nil {
		return eris.Wrap(err, "export: write bom")
	}
	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrap(err, "export: write rows")
	}
	return eris.Wrap(f.Sync(), "export: sync file")
}

func writeXLSX(path string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	for _, values := range append([][]string{Columns}, rows...) {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	return eris.Wrap(f.Save(path), "export: save xlsx")
}
