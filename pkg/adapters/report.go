package adapters

import (
	"slices"

	"github.com/de-tools/stats-report/pkg/models/api"
	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/de-tools/stats-report/pkg/models/store"
)

func MapDomainReportRunToStore(run domain.ReportRun) store.ReportRun {
	var errText *string
	if run.Error != "" {
		e := run.Error
		errText = &e
	}

	return store.ReportRun{
		ID:            run.ID,
		RequestedBy:   run.RequestedBy,
		FileName:      run.FileName,
		Rows:          int64(run.Rows),
		SummedColumns: slices.Clone(run.SummedColumns),
		Status:        string(run.Status),
		Error:         errText,
		CreatedAt:     run.CreatedAt,
	}
}

func MapStoreReportRunToDomain(run store.ReportRun) domain.ReportRun {
	var errText string
	if run.Error != nil {
		errText = *run.Error
	}

	return domain.ReportRun{
		ID:            run.ID,
		RequestedBy:   run.RequestedBy,
		FileName:      run.FileName,
		Rows:          int(run.Rows),
		SummedColumns: slices.Clone(run.SummedColumns),
		Status:        domain.RunStatus(run.Status),
		Error:         errText,
		CreatedAt:     run.CreatedAt,
	}
}

func MapReportRunDomainToApi(run domain.ReportRun) api.ReportRun {
	summed := run.SummedColumns
	if summed == nil {
		summed = []string{}
	}

	return api.ReportRun{
		ID:            run.ID,
		RequestedBy:   run.RequestedBy,
		FileName:      run.FileName,
		Rows:          run.Rows,
		SummedColumns: slices.Clone(summed),
		Status:        string(run.Status),
		Error:         run.Error,
		CreatedAt:     run.CreatedAt,
	}
}
