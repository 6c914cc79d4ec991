package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/de-tools/stats-report/pkg/services/stats"
	"github.com/de-tools/stats-report/pkg/services/table"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoData means the statistics window was empty and there is nothing to send.
var ErrNoData = table.ErrNoData

type TableBuilder interface {
	Build(ctx context.Context, doc *domain.ReportDocument) (*domain.ReportTable, error)
}

type TableWriter interface {
	Write(ctx context.Context, t *domain.ReportTable) (string, error)
}

// HistoryRecorder persists one entry per generated report.
type HistoryRecorder interface {
	Add(ctx context.Context, run domain.ReportRun) error
}

// Archiver keeps a copy of a generated file outside the local disk.
type Archiver interface {
	Archive(ctx context.Context, path string) error
}

type Result struct {
	Path          string
	Rows          int
	SummedColumns []string
	Table         *domain.ReportTable
}

type Dependencies struct {
	Fetcher     stats.Fetcher
	Builder     TableBuilder
	Writer      TableWriter
	History     HistoryRecorder
	Archiver    Archiver
	Query       domain.ReportQuery
	Credentials stats.Credentials
}

type Generator struct {
	deps Dependencies
	now  func() time.Time
}

func NewGenerator(deps Dependencies) (*Generator, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if deps.Builder == nil {
		return nil, fmt.Errorf("table builder is required")
	}
	if deps.Writer == nil {
		return nil, fmt.Errorf("table writer is required")
	}
	if err := deps.Query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report query: %w", err)
	}
	return &Generator{deps: deps, now: time.Now}, nil
}

// GenerateReport fetches the configured statistics window and saves it as a
// spreadsheet. It returns ErrNoData when the window is empty. The caller owns
// the returned file.
func (g *Generator) GenerateReport(ctx context.Context, requestedBy string) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("requested_by", requestedBy).Logger()
	ctx = logger.WithContext(ctx)

	run := domain.ReportRun{
		ID:          uuid.NewString(),
		RequestedBy: requestedBy,
		CreatedAt:   g.now().UTC(),
	}

	res, err := g.generate(ctx)
	switch {
	case errors.Is(err, ErrNoData):
		run.Status = domain.RunStatusNoData
	case err != nil:
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
	default:
		run.Status = domain.RunStatusOK
		run.FileName = filepath.Base(res.Path)
		run.Rows = res.Rows
		run.SummedColumns = res.SummedColumns
		g.archive(ctx, res.Path)
	}
	g.record(ctx, run)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (g *Generator) generate(ctx context.Context) (*Result, error) {
	doc, err := g.deps.Fetcher.Fetch(ctx, g.deps.Query, g.deps.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statistics: %w", err)
	}

	t, err := g.deps.Builder.Build(ctx, doc)
	if err != nil {
		return nil, err
	}

	path, err := g.deps.Writer.Write(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &Result{
		Path:          path,
		Rows:          len(t.Rows),
		SummedColumns: t.SummedColumns(),
		Table:         t,
	}, nil
}

func (g *Generator) archive(ctx context.Context, path string) {
	if g.deps.Archiver == nil {
		return
	}
	if err := g.deps.Archiver.Archive(ctx, path); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file", path).Msg("failed to archive report")
	}
}

func (g *Generator) record(ctx context.Context, run domain.ReportRun) {
	if g.deps.History == nil {
		return
	}
	if err := g.deps.History.Add(ctx, run); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("run_id", run.ID).Msg("failed to record report run")
	}
}
