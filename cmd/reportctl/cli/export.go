package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibliodash/bibliodash/internal/reports/export"
)

type exportFlags struct {
	format string
	query  string
	start  string
	end    string
	out    string
}

func newExportCmd(deps Deps) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export <report>",
		Short: "Write a report to a file or stdout",
		Long:  "Reports: " + strings.Join(export.Reports(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := args[0]
			if !slices.Contains(export.Reports(), report) {
				return fmt.Errorf("export: unknown report %q", report)
			}
			format, err := export.ParseFormat(flags.format)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if deps.Source == nil {
				return fmt.Errorf("export: database not configured")
			}
			ctx := cmd.Context()
			src, pdf, release, err := deps.Source(ctx)
			if err != nil {
				return err
			}
			defer release()

			table, err := export.Build(ctx, src, export.Request{
				Report: report,
				Query:  flags.query,
				Start:  flags.start,
				End:    flags.end,
			})
			if err != nil {
				return fmt.Errorf("export %s: %w", report, err)
			}

			if flags.out == "" || flags.out == "-" {
				if err := export.Write(ctx, cmd.OutOrStdout(), table, format, pdf); err != nil {
					return fmt.Errorf("export %s: %w", report, err)
				}
				return nil
			}
			if err := writeFile(flags.out, func(w io.Writer) error {
				return export.Write(ctx, w, table, format, pdf)
			}); err != nil {
				return fmt.Errorf("export %s: %w", report, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(table.Rows), flags.out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.format, "format", "f", string(export.FormatCSV), "csv, xlsx or pdf")
	cmd.Flags().StringVarP(&flags.query, "query", "q", "", "search text for overdue, popular-books and members")
	cmd.Flags().StringVar(&flags.start, "start", "", "first month (YYYY-MM) for fines")
	cmd.Flags().StringVar(&flags.end, "end", "", "last month (YYYY-MM) for fines")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

// writeFile removes the file again when fn or the final flush fails.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	buf := bufio.NewWriter(f)
	if err := fn(buf); err != nil {
		return err
	}
	return buf.Flush()
}
