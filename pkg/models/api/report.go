package api

import "time"

type ReportRun struct {
	ID            string    `json:"id"`
	RequestedBy   string    `json:"requested_by"`
	FileName      string    `json:"file_name,omitempty"`
	Rows          int       `json:"rows"`
	SummedColumns []string  `json:"summed_columns"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
