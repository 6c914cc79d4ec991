package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/de-tools/stats-report/pkg/runtime/export"
	"github.com/de-tools/stats-report/pkg/services/access"
	"github.com/de-tools/stats-report/pkg/services/config"
	"github.com/de-tools/stats-report/pkg/services/report"
	"github.com/de-tools/stats-report/pkg/services/stats"
	"github.com/de-tools/stats-report/pkg/services/table"
	"github.com/de-tools/stats-report/pkg/store/duckdb"
	"github.com/de-tools/stats-report/pkg/store/duckdb/history"
	"github.com/de-tools/stats-report/pkg/store/s3archive"
	"github.com/rs/zerolog"
)

const defaultProfilesFile = ".statsreport.ini"

// Settings come from command line flags.
type Settings struct {
	ConfigPath   string
	ProfilesPath string
	Profile      string
}

// DefaultProfilesPath is $HOME/.statsreport.ini, or a relative path when the
// home directory is unknown.
func DefaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultProfilesFile
	}
	return filepath.Join(home, defaultProfilesFile)
}

// LoadConfig reads configuration, applies the selected profile and validates
// the result.
func LoadConfig(ctx context.Context, s Settings) (*config.Config, error) {
	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		return nil, err
	}

	if s.Profile != "" {
		path := s.ProfilesPath
		if path == "" {
			path = DefaultProfilesPath()
		}
		registry, err := config.NewRegistry(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create config registry: %w", err)
		}
		profile, err := registry.GetProfile(ctx, s.Profile)
		if err != nil {
			return nil, err
		}
		cfg.ApplyProfile(profile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stdout
	}
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// App holds the services shared by the cli, web and bot entrypoints.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Gate      *access.AllowList
	History   history.Store
	Generator *report.Generator

	db *sql.DB
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	gate, err := access.ParseAllowList(cfg.Bot.AdminUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin user ids: %w", err)
	}

	fetcher, err := stats.NewFetcher(&http.Client{Timeout: cfg.API.Timeout}, cfg.API.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create statistics fetcher: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Gate:   gate,
	}

	deps := report.Dependencies{
		Fetcher: fetcher,
		Builder: table.NewBuilder(table.Options{TotalsMarker: cfg.Report.TotalsMarker}),
		Writer: export.NewXLSXWriter(
			cfg.Report.OutputDir,
			export.WithSheetName(cfg.Report.SheetName),
		),
		Query:       cfg.ReportQuery(),
		Credentials: cfg.Credentials(),
	}

	if cfg.History.DBPath != "" {
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.History.DBPath})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		store, err := history.NewStore(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		a.db = db
		a.History = store
		deps.History = store
	}

	if cfg.Archive.Bucket != "" {
		awsCfg, err := s3archive.LoadConfig(ctx, "")
		if err != nil {
			a.Close()
			return nil, err
		}
		archiver, err := s3archive.NewFromConfig(*awsCfg, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create archiver: %w", err)
		}
		deps.Archiver = archiver
	}

	generator, err := report.NewGenerator(deps)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create report generator: %w", err)
	}
	a.Generator = generator

	logger.Debug().
		Str("output_dir", cfg.Report.OutputDir).
		Bool("history", a.History != nil).
		Bool("archive", deps.Archiver != nil).
		Int("admins", gate.Len()).
		Msg("application wired")
	return a, nil
}

// Open loads configuration and wires the application in one step.
func Open(ctx context.Context, s Settings, logOutput io.Writer) (*App, error) {
	cfg, err := LoadConfig(ctx, s)
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.LogLevel, logOutput)
	if err != nil {
		return nil, err
	}
	return New(logger.WithContext(ctx), cfg, logger)
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return a.Logger.WithContext(ctx)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	a.db = nil
	return nil
}
