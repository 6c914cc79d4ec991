package stats

import (
	"testing"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuery() domain.ReportQuery {
	return domain.ReportQuery{
		OrderBy:         []domain.OrderBy{{Field: "date", Dir: "desc"}},
		Currency:        "RUB",
		Lang:            "ru",
		Level:           "payment",
		EntityFields:    []string{"page_id", "page_caption"},
		DimensionFields: []string{"date|day"},
		MeasureFields:   []string{"clicks", "impressions", "partner_wo_nds"},
		Pretty:          true,
		StatType:        "main",
		Timezone:        "Europe/Moscow",
		Period:          "7days",
		Window:          domain.Window{Offset: 0, Limit: 500},
	}
}

func TestBuildRequestURL_FixedOrder(t *testing.T) {
	got, err := BuildRequestURL("https://stats.example.com/api/statistics2/get.json", testQuery())
	require.NoError(t, err)

	expected := "https://stats.example.com/api/statistics2/get.json?" +
		"order_by=%5B%7B%22field%22%3A%22date%22%2C%22dir%22%3A%22desc%22%7D%5D" +
		"&currency=RUB" +
		"&lang=ru" +
		"&levels=payment" +
		"&entity_field=page_id" +
		"&entity_field=page_caption" +
		"&dimension_field=date%7Cday" +
		"&field=clicks" +
		"&field=impressions" +
		"&field=partner_wo_nds" +
		"&pretty=1" +
		"&stat_type=main" +
		"&timezone=Europe%2FMoscow" +
		"&period=7days" +
		"&limits=%7B%22offset%22%3A0%2C%22limit%22%3A500%7D"
	assert.Equal(t, expected, got)
}

func TestBuildRequestURL_Deterministic(t *testing.T) {
	q := testQuery()
	first, err := BuildRequestURL("https://stats.example.com/get", q)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := BuildRequestURL("https://stats.example.com/get", q)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildRequestURL_ExistingQueryString(t *testing.T) {
	got, err := BuildRequestURL("https://stats.example.com/get?client=1", testQuery())
	require.NoError(t, err)
	assert.Contains(t, got, "https://stats.example.com/get?client=1&order_by=")
}

func TestBuildRequestURL_InvalidQuery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *domain.ReportQuery)
	}{
		{
			name:   "no dimensions",
			mutate: func(q *domain.ReportQuery) { q.DimensionFields = nil },
		},
		{
			name:   "no measures",
			mutate: func(q *domain.ReportQuery) { q.MeasureFields = nil },
		},
		{
			name:   "zero limit",
			mutate: func(q *domain.ReportQuery) { q.Window.Limit = 0 },
		},
		{
			name:   "negative offset",
			mutate: func(q *domain.ReportQuery) { q.Window.Offset = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := testQuery()
			tt.mutate(&q)
			_, err := BuildRequestURL("https://stats.example.com/get", q)
			assert.Error(t, err)
		})
	}
}

func TestBuildRequestURL_EmptyBase(t *testing.T) {
	_, err := BuildRequestURL("", testQuery())
	assert.Error(t, err)
}
