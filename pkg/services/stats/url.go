package stats

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/de-tools/stats-report/pkg/models/domain"
)

type param struct {
	key   string
	value string
}

// BuildRequestURL renders the statistics request for q. Parameters are written
// in a fixed order and repeated keys stay repeated, so the result is stable
// for a given query.
func BuildRequestURL(baseURL string, q domain.ReportQuery) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("base url is empty")
	}
	if err := q.Validate(); err != nil {
		return "", fmt.Errorf("invalid report query: %w", err)
	}

	params, err := queryParams(q)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(baseURL)
	if strings.Contains(baseURL, "?") {
		if !strings.HasSuffix(baseURL, "?") && !strings.HasSuffix(baseURL, "&") {
			sb.WriteByte('&')
		}
	} else {
		sb.WriteByte('?')
	}

	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String(), nil
}

func queryParams(q domain.ReportQuery) ([]param, error) {
	orderBy := q.OrderBy
	if orderBy == nil {
		orderBy = []domain.OrderBy{}
	}
	orderByJSON, err := json.Marshal(orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order_by: %w", err)
	}
	limitsJSON, err := json.Marshal(q.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to encode limits: %w", err)
	}

	params := []param{
		{"order_by", string(orderByJSON)},
		{"currency", q.Currency},
		{"lang", q.Lang},
		{"levels", q.Level},
	}
	for _, f := range q.EntityFields {
		params = append(params, param{"entity_field", f})
	}
	for _, f := range q.DimensionFields {
		params = append(params, param{"dimension_field", f})
	}
	for _, f := range q.MeasureFields {
		params = append(params, param{"field", f})
	}

	pretty := "0"
	if q.Pretty {
		pretty = "1"
	}
	params = append(params,
		param{"pretty", pretty},
		param{"stat_type", q.StatType},
		param{"timezone", q.Timezone},
		param{"period", q.Period},
		param{"limits", string(limitsJSON)},
	)
	return params, nil
}
