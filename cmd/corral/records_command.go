package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/record"
	"corral/internal/store"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var since string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List stored records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var status record.Status
				if statusFilter != "" {
					parsed, err := record.ParseStatus(statusFilter)
					if err != nil {
						return err
					}
					status = parsed
				}

				var records []record.Record
				var err error
				if since != "" {
					if status != "" && status != record.StatusOpen {
						return fmt.Errorf("--since lists open records only, not --status %s", status)
					}
					cutoff, parseErr := time.Parse("2006-01-02", since)
					if parseErr != nil {
						return fmt.Errorf("parse --since: %w", parseErr)
					}
					records, err = st.ListOpenSince(cmd.Context(), cutoff)
					if err == nil && limit > 0 && len(records) > limit {
						records = records[:limit]
					}
				} else {
					records, err = st.ListRecords(cmd.Context(), status, limit)
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, records)
				}

				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					group := rec.GroupID
					if group == "" {
						group = "-"
					}
					rows = append(rows, []string{
						rec.Ref.String(),
						formatPostal(rec),
						truncate(formatTokens(rec.SubjectsPrimary), 32),
						formatRate(rec.RateMin, rec.RateMax),
						formatTime(rec.PublishedAt),
						string(rec.Status),
						truncate(group, 12),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Record", "Postal", "Subjects", "Rate", "Published", "Status", "Group"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "%s records\n", strconv.Itoa(len(records)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (open, consumed, expired)")
	cmd.Flags().StringVar(&since, "since", "", "List open records published on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit records as JSON")
	return cmd
}
