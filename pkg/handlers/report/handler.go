package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/de-tools/stats-report/pkg/adapters"
	"github.com/de-tools/stats-report/pkg/models/api"
	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/de-tools/stats-report/pkg/runtime/export"
	"github.com/de-tools/stats-report/pkg/services/report"
	"github.com/de-tools/stats-report/pkg/services/stats"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	UserIDHeader     = "X-User-ID"
	defaultListLimit = 20
	maxListLimit     = 500
)

type Authorizer interface {
	IsAuthorizedString(id string) bool
}

type Generator interface {
	GenerateReport(ctx context.Context, requestedBy string) (*report.Result, error)
}

type HistoryLister interface {
	List(ctx context.Context, limit int) ([]domain.ReportRun, error)
}

type Handler struct {
	gate      Authorizer
	generator Generator
	history   HistoryLister
}

func NewHandler(gate Authorizer, generator Generator, history HistoryLister) *Handler {
	return &Handler{
		gate:      gate,
		generator: generator,
		history:   history,
	}
}

// GetReport generates a report and streams it as an attachment. The file is
// removed once the response is written.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get(UserIDHeader)
	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()

	if !h.gate.IsAuthorizedString(userID) {
		logger.Warn().Msg("access denied")
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	res, err := h.generator.GenerateReport(logger.WithContext(ctx), userID)
	if err != nil {
		var fetchErr *stats.FetchError
		switch {
		case errors.Is(err, report.ErrNoData):
			w.WriteHeader(http.StatusNoContent)
		case errors.As(err, &fetchErr):
			logger.Error().Err(err).Msg("statistics api failed")
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			logger.Error().Err(err).Msg("failed to generate report")
			writeError(w, http.StatusInternalServerError, "failed to generate report")
		}
		return
	}
	defer func() {
		if err := os.Remove(res.Path); err != nil {
			logger.Error().Err(err).Str("file", res.Path).Msg("failed to remove report")
		}
	}()

	f, err := os.Open(res.Path)
	if err != nil {
		logger.Error().Err(err).Str("file", res.Path).Msg("failed to open report")
		writeError(w, http.StatusInternalServerError, "failed to open report")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", export.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(res.Path)))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		logger.Error().Err(err).Msg("failed to stream report")
	}
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "report history is disabled")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := h.history.List(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list report runs")
		writeError(w, http.StatusInternalServerError, "failed to list report runs")
		return
	}

	response := lo.Map(runs, func(run domain.ReportRun, _ int) api.ReportRun {
		return adapters.MapReportRunDomainToApi(run)
	})
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
