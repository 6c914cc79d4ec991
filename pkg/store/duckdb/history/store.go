package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/de-tools/stats-report/pkg/adapters"
	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/de-tools/stats-report/pkg/models/store"
)

const DefaultListLimit = 20

// Store keeps one row per report run.
type Store interface {
	Add(ctx context.Context, run domain.ReportRun) error
	List(ctx context.Context, limit int) ([]domain.ReportRun, error)
}

type historyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &historyStore{db: db}, nil
}

func (s *historyStore) Add(ctx context.Context, run domain.ReportRun) error {
	if run.ID == "" {
		return fmt.Errorf("report run id is empty")
	}
	rec := adapters.MapDomainReportRunToStore(run)

	summed := rec.SummedColumns
	if summed == nil {
		summed = []string{}
	}
	summedRaw, err := json.Marshal(summed)
	if err != nil {
		return fmt.Errorf("marshal summed columns: %w", err)
	}

	var errArg any
	if rec.Error != nil {
		errArg = *rec.Error
	}

	query := `
		INSERT INTO report_runs (
			id, requested_by, file_name, row_count, summed_columns, status, error, created_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?
		)`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.RequestedBy,
		rec.FileName,
		rec.Rows,
		string(summedRaw),
		rec.Status,
		errArg,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report run: %w", err)
	}
	return nil
}

// List returns the latest runs first. A non-positive limit means DefaultListLimit.
func (s *historyStore) List(ctx context.Context, limit int) ([]domain.ReportRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, requested_by, file_name, row_count, summed_columns, status, error, created_at
		FROM report_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query report runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.ReportRun, 0)
	for rows.Next() {
		var (
			rec       store.ReportRun
			summedRaw string
			errText   sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.RequestedBy,
			&rec.FileName,
			&rec.Rows,
			&summedRaw,
			&rec.Status,
			&errText,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report run: %w", err)
		}
		if err := json.Unmarshal([]byte(summedRaw), &rec.SummedColumns); err != nil {
			return nil, fmt.Errorf("unmarshal summed columns: %w", err)
		}
		if errText.Valid {
			rec.Error = &errText.String
		}
		runs = append(runs, adapters.MapStoreReportRunToDomain(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report runs: %w", err)
	}
	return runs, nil
}
