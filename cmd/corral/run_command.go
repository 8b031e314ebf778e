package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/engine"
	"corral/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one detection pass over the open records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCoordinator(func(cfg *config.Config, st *store.Store, coord *engine.Coordinator) error {
				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				stats, err := coord.RunPass(runCtx)
				if err != nil {
					return fmt.Errorf("detection pass: %w", err)
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}

				rows := [][]string{
					{"Pass", stats.PassID},
					{"Snapshot", strconv.Itoa(stats.SnapshotSize)},
					{"Pairs scored", strconv.Itoa(stats.PairsScored)},
					{"Groups committed", strconv.Itoa(stats.GroupsCommitted)},
					{"Groups deferred", strconv.Itoa(stats.GroupsDeferred)},
					{"Review pairs", strconv.Itoa(stats.PairsReview)},
					{"Duration", stats.Duration.Round(time.Millisecond).String()},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Metric", "Value"}, rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit pass statistics as JSON")
	return cmd
}
