package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/store"
)

func newPassesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "passes",
		Short: "Show detection pass history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				passes, err := st.ListPasses(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, passes)
				}

				rows := make([][]string, 0, len(passes))
				for _, pass := range passes {
					outcome := "ok"
					switch {
					case pass.Error != "":
						outcome = truncate(pass.Error, 40)
					case pass.FinishedAt == nil:
						outcome = "running"
					}
					rows = append(rows, []string{
						truncate(pass.ID, 12),
						pass.StartedAt.Local().Format("2006-01-02 15:04:05"),
						strconv.Itoa(pass.SnapshotSize),
						strconv.Itoa(pass.PairsScored),
						strconv.Itoa(pass.GroupsCommitted),
						strconv.Itoa(pass.GroupsDeferred),
						strconv.Itoa(pass.PairsReview),
						outcome,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Pass", "Started", "Snapshot", "Pairs", "Committed", "Deferred", "Review", "Outcome"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum passes to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit passes as JSON")
	return cmd
}
