package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ReportRunsSchema = `
	CREATE TABLE IF NOT EXISTS report_runs (
		id VARCHAR PRIMARY KEY,
		requested_by VARCHAR NOT NULL,
		file_name VARCHAR NOT NULL DEFAULT '',
		row_count BIGINT NOT NULL DEFAULT 0,
		summed_columns VARCHAR NOT NULL DEFAULT '[]',
		status VARCHAR NOT NULL,
		error VARCHAR NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

const ReportRunsIndex = `
	CREATE INDEX IF NOT EXISTS report_runs_created_at ON report_runs (created_at);
`

var bootQueries = []string{
	ReportRunsSchema,
	ReportRunsIndex,
}

type Settings struct {
	DbPath string
}

// NewDB opens the history database and creates its tables on every new connection.
func NewDB(settings Settings) (*sql.DB, error) {
	if settings.DbPath == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			if _, err := exec.ExecContext(context.Background(), query, nil); err != nil {
				return fmt.Errorf("failed to run boot query: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create duckdb connector: %w", err)
	}

	return sql.OpenDB(c), nil
}
