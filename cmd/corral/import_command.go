package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"corral/internal/config"
	"corral/internal/record"
	"corral/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Import records from a JSON Lines file",
		Long: `Import reads one JSON-encoded record per line and upserts each into the
store. Re-importing a known record refreshes its extracted fields without
touching its status or group assignment. Pass "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var reader io.Reader
				if args[0] == "-" {
					reader = cmd.InOrStdin()
				} else {
					f, err := os.Open(args[0])
					if err != nil {
						return fmt.Errorf("open import file: %w", err)
					}
					defer f.Close()
					reader = f
				}

				imported, err := importRecords(cmd, st, reader)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", imported)
				return nil
			})
		},
	}
	return cmd
}

func importRecords(cmd *cobra.Command, st *store.Store, reader io.Reader) (int, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	imported := 0
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec record.Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return imported, fmt.Errorf("line %d: decode record: %w", line, err)
		}
		if rec.SourceID == "" || rec.ExternalID == "" {
			return imported, fmt.Errorf("line %d: record needs source_id and external_id", line)
		}
		if rec.Status != "" {
			status, err := record.ParseStatus(string(rec.Status))
			if err != nil {
				return imported, fmt.Errorf("line %d: %w", line, err)
			}
			rec.Status = status
		}
		if err := st.UpsertRecord(cmd.Context(), rec); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return imported, fmt.Errorf("read import stream: %w", err)
	}
	return imported, nil
}
