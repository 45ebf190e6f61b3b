package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibliodash/bibliodash/internal/reports/export"
	"github.com/bibliodash/bibliodash/jobs"
)

func newJobsCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Enqueue and inspect background jobs",
	}
	cmd.AddCommand(newJobsTriggerCmd(deps))
	cmd.AddCommand(newJobsStatsCmd(deps))
	return cmd
}

func newJobsTriggerCmd(deps Deps) *cobra.Command {
	var payload jobs.ExportPayload
	cmd := &cobra.Command{
		Use:       "trigger <warmup|export>",
		Short:     "Enqueue a job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{JobWarmup, JobExport},
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Jobs == nil {
				return fmt.Errorf("jobs: redis not configured")
			}
			client, err := deps.Jobs()
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.Trigger(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.Report, "report", "", "report to export")
	cmd.Flags().StringVar(&payload.Format, "format", string(export.FormatCSV), "export format")
	cmd.Flags().StringVarP(&payload.Query, "query", "q", "", "search text")
	cmd.Flags().StringVar(&payload.Start, "start", "", "first month (YYYY-MM)")
	cmd.Flags().StringVar(&payload.End, "end", "", "last month (YYYY-MM)")
	return cmd
}

func newJobsStatsCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print default queue statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Jobs == nil {
				return fmt.Errorf("jobs: redis not configured")
			}
			client, err := deps.Jobs()
			if err != nil {
				return err
			}
			defer client.Close()

			stats, err := client.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
		},
	}
}
