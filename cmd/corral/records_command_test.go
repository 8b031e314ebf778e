package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordsCommandSinceFilter(t *testing.T) {
	base := setupCLIConfig(t)

	input := filepath.Join(base, "records.jsonl")
	lines := strings.Join([]string{
		`{"source_id":"tutorcity","external_id":"tc-old","published_at":"2026-08-01T09:00:00Z"}`,
		`{"source_id":"edumatch","external_id":"em-new","published_at":"2026-08-20T09:00:00Z"}`,
	}, "\n")
	if err := os.WriteFile(input, []byte(lines), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if out, err := runCLI(t, "import", input); err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}

	out, err := runCLI(t, "records", "--since", "2026-08-10", "--json")
	if err != nil {
		t.Fatalf("records: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"external_id": "em-new"`) {
		t.Fatalf("recent record missing: %s", out)
	}
	if strings.Contains(out, `"external_id": "tc-old"`) {
		t.Fatalf("stale record should be filtered: %s", out)
	}
}

func TestRecordsCommandSinceRejectsOtherStatuses(t *testing.T) {
	setupCLIConfig(t)

	if _, err := runCLI(t, "records", "--since", "2026-08-10", "--status", "expired"); err == nil {
		t.Fatal("expected --since with --status expired to fail")
	}
}
