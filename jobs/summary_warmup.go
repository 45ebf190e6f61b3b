package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bibliodash/bibliodash/internal/jobs"
	"github.com/bibliodash/bibliodash/internal/reports"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupTimeout = 20 * time.Second

// SummaryRefresher recomputes the dashboard KPIs.
type SummaryRefresher interface {
	RefreshSummary(ctx context.Context) (reports.DashboardSummary, error)
}

// SummaryWarmupJob keeps the cached dashboard summary fresh.
type SummaryWarmupJob struct {
	Service SummaryRefresher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSummaryWarmupJob wires dependencies for the warmup handler.
func NewSummaryWarmupJob(service SummaryRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryWarmupJob {
	return &SummaryWarmupJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes summary warmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("summary warmup: handler not configured")
	}
	var payload SummaryWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "schedule"
	}

	tracker := j.metrics().Track(TaskSummaryWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	summary, err := j.Service.RefreshSummary(ctx)
	if err != nil {
		logger.Error("summary warmup", slog.Any("error", err))
		return err
	}
	logger.Info("completed summary warmup",
		slog.Int("overdue_loans", summary.OverdueLoans),
		slog.String("inventory_status", summary.InventoryStatus),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *SummaryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *SummaryWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
