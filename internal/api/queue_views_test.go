package api

import (
	"testing"

	"pressline/internal/stage"
)

func TestSortItemsNewestFirst(t *testing.T) {
	items := []Item{
		{ID: 1, CreatedAt: "2026-03-01T10:00:00.000Z"},
		{ID: 3, CreatedAt: "2026-03-02T10:00:00.000Z"},
		{ID: 2, CreatedAt: "2026-03-02T10:00:00.000Z"},
	}
	sorted := SortItemsNewestFirst(items)
	if sorted[0].ID != 3 || sorted[1].ID != 2 || sorted[2].ID != 1 {
		t.Fatalf("unexpected order %+v", sorted)
	}
	if items[0].ID != 1 {
		t.Fatal("input slice should not be reordered")
	}
}

func TestFromHealthReadyOnlyWhenAllReady(t *testing.T) {
	resp := FromHealth([]stage.Health{stage.Healthy("fetching"), stage.Disabled("publishing")})
	if !resp.Ready || len(resp.Stages) != 2 {
		t.Fatalf("unexpected health %+v", resp)
	}
	resp = FromHealth([]stage.Health{stage.Healthy("fetching"), stage.Unhealthy("cleaning", "llm api key missing")})
	if resp.Ready {
		t.Fatal("expected not ready")
	}
	if resp.Stages[1].Detail != "llm api key missing" {
		t.Fatalf("unexpected detail %+v", resp.Stages[1])
	}
}
