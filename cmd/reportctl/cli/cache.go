package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the dashboard summary cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "bump",
		Short: "Invalidate cached dashboard KPIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Cache == nil {
				return fmt.Errorf("cache: redis not configured")
			}
			cache, release, err := deps.Cache(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			if err := cache.Bump(cmd.Context()); err != nil {
				return fmt.Errorf("cache bump: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "summary cache invalidated")
			return nil
		},
	})
	return cmd
}
