package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
)

// ErrNoData is returned by Build when the document has no points. It means
// "nothing to send", not a failure.
var ErrNoData = errors.New("no data to report")

const (
	DefaultTotalsMarker       = "Итого"
	DefaultThousandsThreshold = 1000
)

type Options struct {
	TotalsMarker       string
	Rules              Rules
	ThousandsThreshold float64
}

func DefaultOptions() Options {
	return Options{
		TotalsMarker:       DefaultTotalsMarker,
		Rules:              DefaultRules,
		ThousandsThreshold: DefaultThousandsThreshold,
	}
}

type Builder struct {
	opts Options
}

// NewBuilder fills unset options with their defaults.
func NewBuilder(opts Options) *Builder {
	if opts.TotalsMarker == "" {
		opts.TotalsMarker = DefaultTotalsMarker
	}
	if opts.Rules == nil {
		opts.Rules = DefaultRules
	}
	if opts.ThousandsThreshold == 0 {
		opts.ThousandsThreshold = DefaultThousandsThreshold
	}
	return &Builder{opts: opts}
}

// Build flattens doc into a table with a trailing totals row. Summability and
// formats are decided on raw keys; schema titles only replace headers.
func (b *Builder) Build(ctx context.Context, doc *domain.ReportDocument) (*domain.ReportTable, error) {
	logger := zerolog.Ctx(ctx)

	if doc == nil || doc.Data == nil || len(doc.Data.Points) == 0 {
		logger.Info().Msg("no data points to process")
		return nil, ErrNoData
	}
	data := doc.Data

	t := flatten(data.Points)
	if missing := unobservedMeasures(t, data); len(missing) > 0 {
		logger.Debug().Strs("measures", missing).Msg("measures declared but absent from points")
	}
	if extra := extraMeasureSets(data.Points); len(extra) > 0 {
		raw, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("failed to encode extra measure sets: %w", err)
		}
		logger.Debug().
			Int("sets", len(extra)).
			RawJSON("measures", raw).
			Msg("only the first measure set of each point is reported")
	}
	b.classify(t, data)
	b.appendTotals(t)
	rename(t, data)
	b.format(t)

	logger.Info().
		Int("rows", len(t.Rows)+1).
		Strs("summed_columns", t.SummedColumns()).
		Msg("report table built")
	return t, nil
}

func flatten(points []domain.DataPoint) *domain.ReportTable {
	t := &domain.ReportTable{
		Rows: make([]domain.Row, 0, len(points)),
	}
	seen := make(map[string]struct{})
	observe := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		t.Columns = append(t.Columns, domain.Column{Key: key, Title: key})
	}

	for _, p := range points {
		row := make(domain.Row, len(p.Dimensions))
		for _, f := range p.Dimensions {
			row[f.Key] = dimensionValue(f.Value)
			observe(f.Key)
		}
		if len(p.Measures) > 0 {
			for _, f := range p.Measures[0] {
				row[f.Key] = f.Value
				observe(f.Key)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func unobservedMeasures(t *domain.ReportTable, data *domain.ReportData) []string {
	keys := maps.Keys(data.Measures)
	slices.Sort(keys)

	var missing []string
	for _, key := range keys {
		if !slices.ContainsFunc(t.Columns, func(c domain.Column) bool { return c.Key == key }) {
			missing = append(missing, key)
		}
	}
	return missing
}

// extraMeasureSets collects the measure sets after the first one of each point.
func extraMeasureSets(points []domain.DataPoint) []domain.Fields {
	var extra []domain.Fields
	for _, p := range points {
		if len(p.Measures) > 1 {
			extra = append(extra, p.Measures[1:]...)
		}
	}
	return extra
}

func dimensionValue(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func (b *Builder) classify(t *domain.ReportTable, data *domain.ReportData) {
	for i := range t.Columns {
		col := &t.Columns[i]
		if b.opts.Rules.Match(col.Key, ClassIdentifier) || !numericColumn(t.Rows, col.Key) {
			continue
		}
		col.Summable = true

		switch {
		case b.opts.Rules.Match(col.Key, ClassMonetary) || data.Measures[col.Key].Currency != "":
			col.Format = domain.FormatMoney
		case columnMax(t.Rows, col.Key) > b.opts.ThousandsThreshold:
			col.Format = domain.FormatThousands
		}
	}
}

// numericColumn is true when the column has at least one value and every
// non-null value is a number.
func numericColumn(rows []domain.Row, key string) bool {
	found := false
	for _, row := range rows {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		if _, ok := toNumber(v); !ok {
			return false
		}
		found = true
	}
	return found
}

func columnMax(rows []domain.Row, key string) float64 {
	maxValue, found := 0.0, false
	for _, row := range rows {
		n, ok := toNumber(row[key])
		if !ok {
			continue
		}
		if !found || n > maxValue {
			maxValue, found = n, true
		}
	}
	return maxValue
}

func (b *Builder) appendTotals(t *domain.ReportTable) {
	totals := make(domain.Row, len(t.Columns))
	for _, col := range t.Columns {
		if !col.Summable {
			totals[col.Key] = b.opts.TotalsMarker
			continue
		}
		sum := 0.0
		for _, row := range t.Rows {
			if n, ok := toNumber(row[col.Key]); ok {
				sum += n
			}
		}
		totals[col.Key] = sum
	}
	t.Totals = totals
}

func rename(t *domain.ReportTable, data *domain.ReportData) {
	for i := range t.Columns {
		col := &t.Columns[i]
		if info, ok := data.Dimensions[col.Key]; ok && info.Title != "" {
			col.Title = info.Title
		}
		if info, ok := data.Measures[col.Key]; ok && info.Title != "" {
			col.Title = info.Title
			if info.Currency != "" {
				col.Title = fmt.Sprintf("%s (%s)", info.Title, info.Currency)
			}
		}
	}
}

func (b *Builder) format(t *domain.ReportTable) {
	for _, col := range t.Columns {
		var render func(float64) string
		switch col.Format {
		case domain.FormatMoney:
			render = formatMoney
		case domain.FormatThousands:
			render = formatThousands
		default:
			continue
		}

		for _, row := range t.Rows {
			formatCell(row, col.Key, render)
		}
		formatCell(t.Totals, col.Key, render)
	}
}

func formatCell(row domain.Row, key string, render func(float64) string) {
	if n, ok := toNumber(row[key]); ok {
		row[key] = render(n)
	}
}
