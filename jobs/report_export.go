package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/bibliodash/bibliodash/internal/jobs"
	"github.com/bibliodash/bibliodash/internal/reports/export"
)

// ExportJob renders a report into a file under Dir.
type ExportJob struct {
	Source  export.Source
	PDF     export.PDFRenderer
	Dir     string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	newID   func() string
}

// ExportJobConfig collects the dependencies of the export job.
type ExportJobConfig struct {
	Source  export.Source
	PDF     export.PDFRenderer
	Dir     string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewExportJob constructs the export handler.
func NewExportJob(cfg ExportJobConfig) *ExportJob {
	return &ExportJob{
		Source:  cfg.Source,
		PDF:     cfg.PDF,
		Dir:     cfg.Dir,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
		newID:   uuid.NewString,
	}
}

// Handle processes report export tasks.
func (j *ExportJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Source == nil {
		return errors.New("report export: handler not configured")
	}
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	format, err := export.ParseFormat(payload.Format)
	if err != nil || !slices.Contains(export.Reports(), payload.Report) {
		j.logger().Warn("discarding export task", slog.String("report", payload.Report), slog.String("format", payload.Format))
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReportExport)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	path, err := j.Export(ctx, payload.Request, format)
	if err != nil {
		j.logger().Error("report export", slog.String("report", payload.Report), slog.Any("error", err))
		return err
	}
	j.metrics().AddExportFile(payload.Report, string(format))
	j.logger().Info("report exported", slog.String("report", payload.Report), slog.String("path", path))
	return nil
}

// Export writes the report and returns the file path. Partial files are
// removed on failure.
func (j *ExportJob) Export(ctx context.Context, req export.Request, format export.Format) (path string, err error) {
	table, err := export.Build(ctx, j.Source, req)
	if err != nil {
		return "", fmt.Errorf("build %s: %w", req.Report, err)
	}
	dir := j.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	id := uuid.NewString
	if j.newID != nil {
		id = j.newID
	}
	path = filepath.Join(dir, fmt.Sprintf("%s-%s.%s", req.Report, id(), format))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
			path = ""
		}
	}()
	if err := export.Write(ctx, f, table, format, j.PDF); err != nil {
		return path, fmt.Errorf("write %s: %w", format, err)
	}
	return path, nil
}

func (j *ExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ExportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
