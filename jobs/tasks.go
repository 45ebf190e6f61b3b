package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/bibliodash/bibliodash/internal/reports/export"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSummaryWarmup refreshes the cached dashboard KPIs.
	TaskSummaryWarmup = "reports:summary_warmup"
	// TaskReportExport writes a report file to the export directory.
	TaskReportExport = "reports:export"
)

// SummaryWarmupPayload describes why a warmup was requested.
type SummaryWarmupPayload struct {
	Reason string `json:"reason"`
}

// ExportPayload selects the report, filters and file format of an export.
type ExportPayload struct {
	export.Request
	Format string `json:"format"`
}

// NewSummaryWarmupTask constructs a dashboard warmup task.
func NewSummaryWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(SummaryWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryWarmup, data), nil
}

// NewExportTask constructs a report export task.
func NewExportTask(payload ExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportExport, data), nil
}
