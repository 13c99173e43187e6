package history

import (
	"context"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func TestAppendAndRecent(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	entries := []Entry{
		{RunID: "run-1", Service: "radarr", Identity: "radarr:a", Title: "A", Category: "stalled", Action: "search_retrigger", Outcome: "success", Attempt: 1},
		{RunID: "run-1", Service: "sonarr", Identity: "sonarr:b", Title: "B", Category: "permanent_failure", Action: "remove_and_blocklist", Outcome: "success", Attempt: 1},
		{RunID: "run-2", Service: "radarr", Identity: "radarr:a", Title: "A", Category: "stalled", Action: "search_retrigger", Outcome: "failed", Attempt: 2},
	}
	for _, entry := range entries {
		if err := journal.Append(ctx, entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := journal.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d entries, want 3", len(recent))
	}
	if recent[0].RunID != "run-2" {
		t.Fatalf("entries not newest-first: %+v", recent[0])
	}
	if recent[0].CreatedAt.IsZero() {
		t.Fatal("created_at not populated")
	}
}

func TestRecentFiltersService(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	_ = journal.Append(ctx, Entry{RunID: "r", Service: "radarr", Identity: "radarr:a", Action: "remove", Outcome: "success"})
	_ = journal.Append(ctx, Entry{RunID: "r", Service: "sonarr", Identity: "sonarr:b", Action: "remove", Outcome: "success"})

	recent, err := journal.Recent(ctx, "sonarr", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Service != "sonarr" {
		t.Fatalf("filter failed: %+v", recent)
	}
}

func TestRecentLimit(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := journal.Append(ctx, Entry{RunID: "r", Service: "radarr", Identity: "radarr:x", Action: "remove", Outcome: "success", CreatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := journal.Recent(ctx, "", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("limit ignored, got %d entries", len(recent))
	}
}
