package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReportQuery describes one window of statistics to fetch.
type ReportQuery struct {
	OrderBy         []OrderBy
	Currency        string
	Lang            string
	Level           string
	EntityFields    []string
	DimensionFields []string
	MeasureFields   []string
	Pretty          bool
	StatType        string
	Timezone        string
	Period          string
	Window          Window
}

type OrderBy struct {
	Field string `json:"field"`
	Dir   string `json:"dir"`
}

// Window is the offset/limit pair sent as the `limits` parameter.
type Window struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func (q ReportQuery) Validate() error {
	if len(q.DimensionFields) == 0 {
		return fmt.Errorf("query requires at least one dimension field")
	}
	if len(q.MeasureFields) == 0 {
		return fmt.Errorf("query requires at least one measure field")
	}
	if q.Window.Limit <= 0 {
		return fmt.Errorf("query limit must be positive, got %d", q.Window.Limit)
	}
	if q.Window.Offset < 0 {
		return fmt.Errorf("query offset must not be negative, got %d", q.Window.Offset)
	}
	return nil
}

// ReportDocument is the payload returned by the statistics API.
type ReportDocument struct {
	Data *ReportData `json:"data"`
}

type ReportData struct {
	Dimensions map[string]DimensionInfo `json:"dimensions"`
	Measures   map[string]MeasureInfo   `json:"measures"`
	Points     []DataPoint              `json:"points"`
}

type DimensionInfo struct {
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

type MeasureInfo struct {
	Title    string `json:"title"`
	Currency string `json:"currency,omitempty"`
	Type     string `json:"type,omitempty"`
}

// DataPoint is one row of raw data. Only Measures[0] is read by the table
// builder; later sets are kept as received.
type DataPoint struct {
	Dimensions Fields   `json:"dimensions"`
	Measures   []Fields `json:"measures"`
}

// Field is a single key/value pair of a JSON object.
type Field struct {
	Key   string
	Value any
}

// Fields is a JSON object that keeps its keys in document order.
// Numbers decode to float64, nested values to the usual encoding/json types.
type Fields []Field

func (f *Fields) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode value of %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return nil
}

func (f Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CellFormat is the display format applied to a summable column.
type CellFormat int

const (
	FormatNone CellFormat = iota
	FormatMoney
	FormatThousands
)

func (f CellFormat) String() string {
	switch f {
	case FormatMoney:
		return "money"
	case FormatThousands:
		return "thousands"
	default:
		return "none"
	}
}

type Column struct {
	Key      string
	Title    string
	Summable bool
	Format   CellFormat
}

// Row holds cells keyed by the raw column key.
type Row map[string]any

// ReportTable is the flattened report: data rows plus one totals row.
type ReportTable struct {
	Columns []Column
	Rows    []Row
	Totals  Row
}

// SummedColumns returns the keys of the summable columns in column order.
func (t *ReportTable) SummedColumns() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.Summable {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Titles returns the header row.
func (t *ReportTable) Titles() []string {
	titles := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = c.Title
	}
	return titles
}
