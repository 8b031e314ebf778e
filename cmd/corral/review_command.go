package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/record"
	"corral/internal/store"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Manage the manual review queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newReviewListCommand(ctx))
	cmd.AddCommand(newReviewDismissCommand(ctx))
	return cmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pairs flagged for manual review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				pairs, err := st.ListReviewPairs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, pairs)
				}

				rows := make([][]string, 0, len(pairs))
				for _, pair := range pairs {
					rows = append(rows, []string{
						pair.A.String(),
						pair.B.String(),
						formatScore(pair.Score),
						formatScore(pair.Breakdown.Postal),
						formatScore(pair.Breakdown.Subjects),
						pair.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Record A", "Record B", "Score", "Postal", "Subjects", "Flagged"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum pairs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit pairs as JSON")
	return cmd
}

func newReviewDismissCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dismiss <source/external> <source/external>",
		Short: "Remove a pair from the review queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				a, err := parseRef(args[0])
				if err != nil {
					return err
				}
				b, err := parseRef(args[1])
				if err != nil {
					return err
				}
				if err := st.DeleteReviewPair(cmd.Context(), a, b); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s | %s\n", a, b)
				return nil
			})
		},
	}
	return cmd
}

func parseRef(value string) (record.Ref, error) {
	source, external, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok || source == "" || external == "" {
		return record.Ref{}, fmt.Errorf("invalid record reference %q (want source/external)", value)
	}
	return record.Ref{SourceID: source, ExternalID: external}, nil
}
