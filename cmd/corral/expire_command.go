package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/store"
)

func newExpireCommand(ctx *commandContext) *cobra.Command {
	var days int
	var before string

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire stale open records",
		Long: `Expire marks open records published before the cutoff as expired so
later passes keep their snapshots small. Records without a publication
timestamp are never expired.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				cutoff := time.Now().AddDate(0, 0, -days)
				if before != "" {
					parsed, err := time.Parse("2006-01-02", before)
					if err != nil {
						return fmt.Errorf("parse --before: %w", err)
					}
					cutoff = parsed
				}

				expired, err := st.ExpireOpenBefore(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expired %d records published before %s\n",
					expired, cutoff.Format("2006-01-02"))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Expire records published more than this many days ago")
	cmd.Flags().StringVar(&before, "before", "", "Explicit cutoff date (YYYY-MM-DD, overrides --days)")
	return cmd
}
