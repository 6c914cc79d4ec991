package domain

import "time"

type RunStatus string

const (
	RunStatusOK     RunStatus = "ok"
	RunStatusNoData RunStatus = "no_data"
	RunStatusFailed RunStatus = "failed"
)

// ReportRun records one GenerateReport invocation.
type ReportRun struct {
	ID            string
	RequestedBy   string
	FileName      string
	Rows          int
	SummedColumns []string
	Status        RunStatus
	Error         string
	CreatedAt     time.Time
}
