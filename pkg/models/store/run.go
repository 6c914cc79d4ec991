package store

import "time"

type ReportRun struct {
	ID            string
	RequestedBy   string
	FileName      string
	Rows          int64
	SummedColumns []string
	Status        string
	Error         *string
	CreatedAt     time.Time
}
