package services_test

import (
	"context"
	"testing"

	"pressline/internal/services"
)

func TestContextCarriesItemStageAndCycle(t *testing.T) {
	ctx := services.WithCycleID(context.Background(), "cycle-9")
	ctx = services.WithStage(ctx, "summarizing")
	ctx = services.WithItemID(ctx, 42)

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("item id = %d, %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "summarizing" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if cycle, ok := services.CycleIDFromContext(ctx); !ok || cycle != "cycle-9" {
		t.Fatalf("cycle = %q, %v", cycle, ok)
	}
}

func TestContextBlankValuesAreIgnored(t *testing.T) {
	ctx := services.WithCycleID(services.WithStage(context.Background(), ""), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage")
	}
	if _, ok := services.CycleIDFromContext(ctx); ok {
		t.Fatal("expected no cycle id")
	}
	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected no item id")
	}
}
