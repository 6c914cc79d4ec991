package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// MediaType is the content type of the files XLSXWriter produces.
const MediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	fileTimeLayout  = "20060102-150405"
	fileExt         = ".xlsx"
	defaultSheet    = "Report"
	maxNameAttempts = 1000
	minColumnWidth  = 10
	maxColumnWidth  = 60
)

type XLSXWriter struct {
	dir   string
	sheet string
	now   func() time.Time
}

type Option func(w *XLSXWriter)

// WithClock overrides the clock used to name files.
func WithClock(now func() time.Time) Option {
	return func(w *XLSXWriter) {
		w.now = now
	}
}

func WithSheetName(name string) Option {
	return func(w *XLSXWriter) {
		w.sheet = name
	}
}

// NewXLSXWriter writes reports into dir; an empty dir means the working directory.
func NewXLSXWriter(dir string, opts ...Option) *XLSXWriter {
	if dir == "" {
		dir = "."
	}
	w := &XLSXWriter{
		dir:   dir,
		sheet: defaultSheet,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write stores t as a single-sheet workbook named YYYYMMDD-HHMMSS.xlsx and
// returns its path. The path only appears once the file is complete. Names
// already taken get a numeric suffix instead of being overwritten.
func (w *XLSXWriter) Write(ctx context.Context, t *domain.ReportTable) (string, error) {
	if t == nil {
		return "", fmt.Errorf("report table is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	book, err := w.workbook(t)
	if err != nil {
		return "", err
	}
	defer book.Close()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path, err := w.reserve()
	if err != nil {
		return "", err
	}

	if err := publish(book, path); err != nil {
		_ = os.Remove(path)
		return "", err
	}

	zerolog.Ctx(ctx).Info().
		Str("file", path).
		Int("rows", len(t.Rows)+1).
		Msg("report saved")
	return path, nil
}

// reserve claims a free file name by creating it exclusively.
func (w *XLSXWriter) reserve() (string, error) {
	base := w.now().Format(fileTimeLayout)
	for i := 1; i <= maxNameAttempts; i++ {
		name := base + fileExt
		if i > 1 {
			name = fmt.Sprintf("%s-%d%s", base, i, fileExt)
		}
		path := filepath.Join(w.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to reserve report file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to reserve report file: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("failed to reserve report file: %d names taken for %s", maxNameAttempts, base)
}

// publish writes book next to path and renames it into place.
func publish(book *excelize.File, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := book.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

func (w *XLSXWriter) workbook(t *domain.ReportTable) (*excelize.File, error) {
	book := excelize.NewFile()
	if err := book.SetSheetName("Sheet1", w.sheet); err != nil {
		book.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := fillSheet(book, w.sheet, t); err != nil {
		book.Close()
		return nil, err
	}
	return book, nil
}

func fillSheet(book *excelize.File, sheet string, t *domain.ReportTable) error {
	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Title
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rows := append(append([]domain.Row{}, t.Rows...), t.Totals)
	for i, row := range rows {
		values := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			values[j] = row[col.Key]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	totalsRow := len(rows) + 1
	if err := book.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := book.SetRowStyle(sheet, totalsRow, totalsRow, bold); err != nil {
		return fmt.Errorf("failed to style totals: %w", err)
	}

	for i, col := range t.Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := book.SetColWidth(sheet, name, name, columnWidth(col.Title)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}

func columnWidth(title string) float64 {
	width := float64(utf8.RuneCountInString(title) + 2)
	return min(max(width, minColumnWidth), maxColumnWidth)
}
