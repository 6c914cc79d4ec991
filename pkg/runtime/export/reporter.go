package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/samber/lo"
)

type TableConfig struct {
	CellWidth int
	MaxRows   int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		CellWidth: 18,
		MaxRows:   20,
	}
}

// Reporter prints a text preview of a report table.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type previewData struct {
	Path    string
	Titles  []string
	Rows    [][]string
	Hidden  int
	Totals  []string
	Summed  []string
	Columns int
}

func (c *Reporter) Handle(path string, t *domain.ReportTable) error {
	funcMap := template.FuncMap{
		"formatRow": func(cells []string) string {
			padded := lo.Map(cells, func(cell string, _ int) string {
				return pad(cell, c.config.CellWidth)
			})
			return "| " + strings.Join(padded, " | ") + " |"
		},
		"separator": func(columns int) string {
			parts := make([]string, columns)
			for i := range parts {
				parts[i] = strings.Repeat("-", c.config.CellWidth+2)
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
		"join": strings.Join,
	}

	tmpl := `
Report: {{.Path}}
Rows: {{len .Rows}}{{if .Hidden}} (+{{.Hidden}} more){{end}} + totals
Summed columns: {{if .Summed}}{{join .Summed ", "}}{{else}}none{{end}}

{{separator .Columns}}
{{formatRow .Titles}}
{{separator .Columns}}
{{range .Rows}}{{formatRow .}}
{{end}}{{separator .Columns}}
{{formatRow .Totals}}
{{separator .Columns}}
`

	tp, err := template.New("preview").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return tp.Execute(c.writer, c.preview(path, t))
}

func (c *Reporter) preview(path string, t *domain.ReportTable) previewData {
	cells := func(row domain.Row) []string {
		return lo.Map(t.Columns, func(col domain.Column, _ int) string {
			v := row[col.Key]
			if v == nil {
				return ""
			}
			return fmt.Sprint(v)
		})
	}

	shown := t.Rows
	if c.config.MaxRows > 0 && len(shown) > c.config.MaxRows {
		shown = shown[:c.config.MaxRows]
	}

	return previewData{
		Path:    path,
		Titles:  t.Titles(),
		Rows:    lo.Map(shown, func(row domain.Row, _ int) []string { return cells(row) }),
		Hidden:  len(t.Rows) - len(shown),
		Totals:  cells(t.Totals),
		Summed:  t.SummedColumns(),
		Columns: len(t.Columns),
	}
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		runes := []rune(s)
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-n)
}
