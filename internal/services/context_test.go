package services

import (
	"context"
	"testing"
)

func TestPassIDRoundTrip(t *testing.T) {
	ctx := WithPassID(context.Background(), "pass-1")
	id, ok := PassIDFromContext(ctx)
	if !ok || id != "pass-1" {
		t.Fatalf("expected pass-1, got %q ok=%v", id, ok)
	}
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	ctx := context.Background()
	if out := WithPassID(ctx, ""); out != ctx {
		t.Fatal("empty pass id should return original context")
	}
	if _, ok := RecordFromContext(ctx); ok {
		t.Fatal("record should be absent on fresh context")
	}
	if _, ok := GroupIDFromContext(ctx); ok {
		t.Fatal("group id should be absent on fresh context")
	}
}
