package cli

import (
	"context"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/bibliodash/bibliodash/internal/reports/export"
	"github.com/bibliodash/bibliodash/jobs"
)

// Enqueuer submits background jobs and reads queue statistics.
type Enqueuer interface {
	Trigger(ctx context.Context, name string, payload jobs.ExportPayload) (*asynq.TaskInfo, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
	Close() error
}

// Bumper invalidates cached dashboard KPIs.
type Bumper interface {
	Bump(ctx context.Context) error
}

// Deps opens the resources a command needs. Each opener returns a release
// func that the command calls when done.
type Deps struct {
	Source func(ctx context.Context) (export.Source, export.PDFRenderer, func(), error)
	Jobs   func() (Enqueuer, error)
	Cache  func(ctx context.Context) (Bumper, func(), error)
	Stdout io.Writer
	Stderr io.Writer
}

// NewRootCmd builds the reportctl command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "reportctl",
		Short: "reportctl operates the library reports dashboard",
		Long: `reportctl exports report files, enqueues background jobs and
manages the dashboard summary cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if deps.Stdout != nil {
		root.SetOut(deps.Stdout)
	}
	if deps.Stderr != nil {
		root.SetErr(deps.Stderr)
	}
	root.AddCommand(newExportCmd(deps))
	root.AddCommand(newJobsCmd(deps))
	root.AddCommand(newCacheCmd(deps))
	return root
}
