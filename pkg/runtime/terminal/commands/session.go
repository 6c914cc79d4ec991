package commands

import (
	"context"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/de-tools/stats-report/pkg/services/config"
	"github.com/de-tools/stats-report/pkg/services/report"
)

type Generator interface {
	GenerateReport(ctx context.Context, requestedBy string) (*report.Result, error)
}

type HistoryLister interface {
	List(ctx context.Context, limit int) ([]domain.ReportRun, error)
}

// Session is a configured application opened for a single command.
type Session struct {
	Ctx       context.Context
	Generator Generator
	History   HistoryLister
	Close     func() error
}

// Opener opens a session; ConfigLoader only reads configuration.
type (
	Opener       func(ctx context.Context) (*Session, error)
	ConfigLoader func(ctx context.Context) (*config.Config, error)
)

func (s *Session) close() {
	if s.Close != nil {
		_ = s.Close()
	}
}
