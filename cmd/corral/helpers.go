package main

import (
	"strconv"
	"strings"
	"time"

	"corral/internal/record"
)

func formatRate(min, max *int) string {
	switch {
	case min == nil && max == nil:
		return "-"
	case min == nil:
		return "≤" + strconv.Itoa(*max)
	case max == nil:
		return "≥" + strconv.Itoa(*min)
	default:
		return strconv.Itoa(*min) + "-" + strconv.Itoa(*max)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatTokens(tokens []string) string {
	if len(tokens) == 0 {
		return "-"
	}
	return strings.Join(tokens, ", ")
}

func formatPostal(rec record.Record) string {
	if len(rec.PostalExplicit) > 0 {
		return strings.Join(rec.PostalExplicit, ", ")
	}
	if len(rec.PostalEstimated) > 0 {
		return "~" + strings.Join(rec.PostalEstimated, ", ")
	}
	return "-"
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 1 {
		return value[:limit]
	}
	return value[:limit-1] + "…"
}
