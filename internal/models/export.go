package models

import "time"

// ExportFormat selects the rendered output of a results export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus is the lifecycle of an asynchronous export job.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// CreateExportRequest queues a results export. Festival and day scope the
// report the same way the live results endpoint does.
type CreateExportRequest struct {
	FestivalID *string      `json:"festival_id" validate:"omitempty,uuid4"`
	DayID      *string      `json:"day_id" validate:"omitempty,uuid4"`
	Format     ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJob tracks one asynchronous results export.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	FestivalID   *string      `db:"festival_id" json:"festival_id,omitempty"`
	DayID        *string      `db:"day_id" json:"day_id,omitempty"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	ResultURL    *string      `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}
