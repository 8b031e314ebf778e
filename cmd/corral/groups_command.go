package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/merge"
	"corral/internal/store"
)

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Inspect duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newGroupsListCommand(ctx))
	cmd.AddCommand(newGroupsShowCommand(ctx))
	return cmd
}

func newGroupsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List committed duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				groups, err := st.ListGroups(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, groups)
				}

				rows := make([][]string, 0, len(groups))
				for _, group := range groups {
					postal := "-"
					if value, ok := group.Canonical[merge.FieldPostal]; ok {
						postal = value.Value
					}
					subjects := "-"
					if value, ok := group.Canonical[merge.FieldSubjects]; ok {
						subjects = value.Value
					}
					rows = append(rows, []string{
						truncate(group.ID, 12),
						strconv.Itoa(len(group.Members)),
						postal,
						truncate(subjects, 32),
						group.DecidedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Group", "Members", "Postal", "Subjects", "Decided"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum groups to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit groups as JSON")
	return cmd
}

func newGroupsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show one group with members and canonical fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				group, err := st.GetGroup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, group)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Group %s (decided %s, pass %s)\n",
					group.ID, group.DecidedAt.Local().Format("2006-01-02 15:04"), group.PassID)

				memberRows := make([][]string, 0, len(group.Members))
				for _, ref := range group.Members {
					memberRows = append(memberRows, []string{ref.String()})
				}
				fmt.Fprintln(out, renderTable([]string{"Member"}, memberRows, nil))

				fieldRows := make([][]string, 0, len(group.Canonical))
				for _, field := range sortedFields(group.Canonical) {
					value := group.Canonical[field]
					fieldRows = append(fieldRows, []string{field, value.Value, value.Source.String()})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Field", "Value", "From"},
					fieldRows,
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the group as JSON")
	return cmd
}

func sortedFields(canonical map[string]merge.CanonicalValue) []string {
	fields := make([]string, 0, len(canonical))
	for field := range canonical {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
