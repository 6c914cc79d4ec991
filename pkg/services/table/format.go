package table

import (
	"encoding/json"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayPrinter = message.NewPrinter(language.English)

func formatMoney(v float64) string {
	return displayPrinter.Sprintf("%.2f", v)
}

func formatThousands(v float64) string {
	return displayPrinter.Sprintf("%.0f", v)
}

// toNumber returns v as float64 when it holds a number. Strings, even
// numeric-looking ones, are not numbers: formatted cells must never be
// formatted again.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
