package report

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/de-tools/stats-report/pkg/runtime/export"
	"github.com/de-tools/stats-report/pkg/services/stats"
	"github.com/de-tools/stats-report/pkg/services/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(
	ctx context.Context,
	q domain.ReportQuery,
	creds stats.Credentials,
) (*domain.ReportDocument, error) {
	args := m.Called(ctx, q, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReportDocument), args.Error(1)
}

type mockBuilder struct {
	mock.Mock
}

func (m *mockBuilder) Build(ctx context.Context, doc *domain.ReportDocument) (*domain.ReportTable, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReportTable), args.Error(1)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Add(ctx context.Context, run domain.ReportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

var (
	testQuery = domain.ReportQuery{
		DimensionFields: []string{"date|day"},
		MeasureFields:   []string{"impressions"},
		Window:          domain.Window{Limit: 500},
	}
	testCreds = stats.Credentials{Scheme: "OAuth", Token: "t"}
)

func twoPointDocument() *domain.ReportDocument {
	return &domain.ReportDocument{
		Data: &domain.ReportData{
			Points: []domain.DataPoint{
				{
					Dimensions: domain.Fields{{Key: "date", Value: "2024-01-01"}, {Key: "page_id", Value: []any{float64(42)}}},
					Measures:   []domain.Fields{{{Key: "impressions", Value: float64(100)}}},
				},
				{
					Dimensions: domain.Fields{{Key: "date", Value: "2024-01-02"}, {Key: "page_id", Value: []any{float64(43)}}},
					Measures:   []domain.Fields{{{Key: "impressions", Value: float64(200)}}},
				},
			},
		},
	}
}

func TestGenerateReport_WritesFileAndRecordsRun(t *testing.T) {
	dir := t.TempDir()
	fetcher := new(mockFetcher)
	history := new(mockHistory)
	archiver := new(mockArchiver)

	fetcher.On("Fetch", mock.Anything, testQuery, testCreds).Return(twoPointDocument(), nil)
	archiver.On("Archive", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	history.On("Add", mock.Anything, mock.MatchedBy(func(run domain.ReportRun) bool {
		return run.Status == domain.RunStatusOK &&
			run.RequestedBy == "42" &&
			run.Rows == 2 &&
			run.ID != "" &&
			filepath.Ext(run.FileName) == ".xlsx"
	})).Return(nil)

	g, err := NewGenerator(Dependencies{
		Fetcher:     fetcher,
		Builder:     table.NewBuilder(table.DefaultOptions()),
		Writer:      export.NewXLSXWriter(dir),
		History:     history,
		Archiver:    archiver,
		Query:       testQuery,
		Credentials: testCreds,
	})
	require.NoError(t, err)

	res, err := g.GenerateReport(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(res.Path))
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, []string{"impressions"}, res.SummedColumns)
	assert.Equal(t, float64(300), res.Table.Totals["impressions"])
	_, err = os.Stat(res.Path)
	assert.NoError(t, err)

	fetcher.AssertExpectations(t)
	history.AssertExpectations(t)
	archiver.AssertCalled(t, "Archive", mock.Anything, res.Path)
}

func TestGenerateReport_NoData(t *testing.T) {
	dir := t.TempDir()
	fetcher := new(mockFetcher)
	history := new(mockHistory)
	archiver := new(mockArchiver)

	fetcher.On("Fetch", mock.Anything, testQuery, testCreds).
		Return(&domain.ReportDocument{Data: &domain.ReportData{Points: []domain.DataPoint{}}}, nil)
	history.On("Add", mock.Anything, mock.MatchedBy(func(run domain.ReportRun) bool {
		return run.Status == domain.RunStatusNoData && run.FileName == ""
	})).Return(nil)

	g, err := NewGenerator(Dependencies{
		Fetcher:     fetcher,
		Builder:     table.NewBuilder(table.DefaultOptions()),
		Writer:      export.NewXLSXWriter(dir),
		History:     history,
		Archiver:    archiver,
		Query:       testQuery,
		Credentials: testCreds,
	})
	require.NoError(t, err)

	res, err := g.GenerateReport(context.Background(), "42")
	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, res)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	history.AssertExpectations(t)
	archiver.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
}

func TestGenerateReport_FetchErrorSkipsBuilder(t *testing.T) {
	fetcher := new(mockFetcher)
	builder := new(mockBuilder)
	history := new(mockHistory)

	fetchErr := &stats.FetchError{StatusCode: http.StatusInternalServerError, Body: "boom"}
	fetcher.On("Fetch", mock.Anything, testQuery, testCreds).Return(nil, fetchErr)
	history.On("Add", mock.Anything, mock.MatchedBy(func(run domain.ReportRun) bool {
		return run.Status == domain.RunStatusFailed && run.Error != ""
	})).Return(nil)

	g, err := NewGenerator(Dependencies{
		Fetcher:     fetcher,
		Builder:     builder,
		Writer:      export.NewXLSXWriter(t.TempDir()),
		History:     history,
		Query:       testQuery,
		Credentials: testCreds,
	})
	require.NoError(t, err)

	_, err = g.GenerateReport(context.Background(), "42")

	var got *stats.FetchError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
	builder.AssertNotCalled(t, "Build", mock.Anything, mock.Anything)
	history.AssertExpectations(t)
}

func TestGenerateReport_HistoryFailureIsNotFatal(t *testing.T) {
	fetcher := new(mockFetcher)
	history := new(mockHistory)

	fetcher.On("Fetch", mock.Anything, testQuery, testCreds).Return(twoPointDocument(), nil)
	history.On("Add", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	g, err := NewGenerator(Dependencies{
		Fetcher:     fetcher,
		Builder:     table.NewBuilder(table.DefaultOptions()),
		Writer:      export.NewXLSXWriter(t.TempDir()),
		History:     history,
		Query:       testQuery,
		Credentials: testCreds,
	})
	require.NoError(t, err)

	res, err := g.GenerateReport(context.Background(), "42")
	require.NoError(t, err)
	assert.FileExists(t, res.Path)
}

func TestNewGenerator_Validation(t *testing.T) {
	builder := table.NewBuilder(table.DefaultOptions())
	writer := export.NewXLSXWriter(t.TempDir())

	tests := []struct {
		name string
		deps Dependencies
	}{
		{name: "no fetcher", deps: Dependencies{Builder: builder, Writer: writer, Query: testQuery}},
		{name: "no builder", deps: Dependencies{Fetcher: new(mockFetcher), Writer: writer, Query: testQuery}},
		{name: "no writer", deps: Dependencies{Fetcher: new(mockFetcher), Builder: builder, Query: testQuery}},
		{name: "invalid query", deps: Dependencies{Fetcher: new(mockFetcher), Builder: builder, Writer: writer}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.deps)
			assert.Error(t, err)
			assert.Nil(t, g)
		})
	}
}
