// Command reportctl exports reports, enqueues jobs and manages the summary
// cache from the command line.
//
// Usage:
//
//	reportctl export members --format xlsx --out members.xlsx
//	reportctl export fines --start 2024-01 --end 2024-06
//	reportctl jobs trigger warmup
//	reportctl jobs trigger export --report overdue --format pdf
//	reportctl jobs stats
//	reportctl cache bump
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibliodash/bibliodash/cmd/reportctl/cli"
	"github.com/bibliodash/bibliodash/internal/app"
	"github.com/bibliodash/bibliodash/internal/platform/cache"
	"github.com/bibliodash/bibliodash/internal/platform/db"
	"github.com/bibliodash/bibliodash/internal/reports"
	reportsdb "github.com/bibliodash/bibliodash/internal/reports/db"
	"github.com/bibliodash/bibliodash/internal/reports/export"
	"github.com/bibliodash/bibliodash/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reportctl: load config: %v\n", err)
		os.Exit(1)
	}

	root := cli.NewRootCmd(cli.Deps{
		Source: func(ctx context.Context) (export.Source, export.PDFRenderer, func(), error) {
			pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
			if err != nil {
				return nil, nil, nil, err
			}
			service := reports.NewService(reportsdb.New(pool), nil)
			return service, report.NewClient(cfg.GotenbergURL), pool.Close, nil
		},
		Jobs: func() (cli.Enqueuer, error) {
			return cli.NewJobsCLI(cfg.RedisAddr)
		},
		Cache: func(ctx context.Context) (cli.Bumper, func(), error) {
			client, err := cache.New(ctx, cfg.RedisAddr)
			if err != nil {
				return nil, nil, err
			}
			// Bump only touches the version key, so any positive TTL will do.
			ttl := cfg.SummaryCacheTTL
			if ttl <= 0 {
				ttl = time.Minute
			}
			return reports.NewCache(client, ttl), func() { _ = client.Close() }, nil
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "reportctl: %v\n", err)
		os.Exit(1)
	}
}
