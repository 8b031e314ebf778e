package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/services"
	"corral/internal/store"
)

func newConsumeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume <source/external>...",
		Short: "Mark records as consumed",
		Long: `Consume marks records as taken up downstream. Consumed records leave
the open snapshot and are never scored again, but keep their duplicate
group membership.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				for _, arg := range args {
					ref, err := parseRef(arg)
					if err != nil {
						return err
					}
					if err := st.MarkConsumed(services.WithRecord(cmd.Context(), ref.String()), ref); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Consumed %s\n", ref)
				}
				return nil
			})
		},
	}
	return cmd
}
