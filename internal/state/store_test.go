package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"arrmate/internal/identity"
)

func TestMarkActionCreatesAndIncrements(t *testing.T) {
	store := Open(t.TempDir(), "radarr", nil)
	now := time.Now().UTC()

	record := store.MarkAction("radarr:abc", "Some Movie", ActionRemovedAndBlocklisted, now)
	if record.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", record.Attempts)
	}
	if !record.FirstSeenAt.Equal(now) {
		t.Fatalf("first seen = %v, want %v", record.FirstSeenAt, now)
	}

	later := now.Add(time.Minute)
	record = store.MarkAction("radarr:abc", "Some Movie", ActionRemovedAndBlocklisted, later)
	if record.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", record.Attempts)
	}
	if !record.FirstSeenAt.Equal(now) {
		t.Fatal("first seen must not move on later actions")
	}
	if !record.LastActedAt.Equal(later) {
		t.Fatal("last acted not updated")
	}
}

func TestUpsertAttemptsMonotonic(t *testing.T) {
	store := Open(t.TempDir(), "sonarr", nil)
	id := identity.Identity("sonarr:xyz")
	now := time.Now().UTC()

	store.Upsert(Record{Identity: id, Attempts: 3, LastActedAt: now})
	store.Upsert(Record{Identity: id, Attempts: 1, LastActedAt: now})

	record, ok := store.Get(id)
	if !ok {
		t.Fatal("record missing")
	}
	if record.Attempts != 3 {
		t.Fatalf("attempts regressed to %d", record.Attempts)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	store := Open(dir, "radarr", nil)
	store.MarkAction("radarr:a", "A", ActionRemovedOnly, now)
	store.MarkAction("radarr:b", "B", ActionSearchRetriggered, now)
	store.MarkAction("radarr:b", "B", ActionSearchRetriggered, now.Add(time.Minute))
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := Open(dir, "radarr", nil)
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded %d records, want 2", reloaded.Len())
	}
	record, ok := reloaded.Get("radarr:b")
	if !ok {
		t.Fatal("record radarr:b missing after reload")
	}
	if record.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", record.Attempts)
	}
	if record.LastAction != ActionSearchRetriggered {
		t.Fatalf("last action = %q", record.LastAction)
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	store := Open(t.TempDir(), "radarr", nil)
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", store.Len())
	}
}

func TestOpenCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radarr_remediation.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store := Open(dir, "radarr", nil)
	if store.Len() != 0 {
		t.Fatalf("corrupt file should start empty, got %d", store.Len())
	}
}

func TestPruneRespectsGracePeriod(t *testing.T) {
	store := Open(t.TempDir(), "radarr", nil)
	now := time.Now().UTC()

	store.MarkAction("radarr:old", "Old", ActionRemovedOnly, now.Add(-48*time.Hour))
	store.MarkAction("radarr:recent", "Recent", ActionRemovedOnly, now.Add(-time.Hour))
	store.MarkAction("radarr:live", "Live", ActionRemovedOnly, now.Add(-72*time.Hour))

	live := map[identity.Identity]struct{}{"radarr:live": {}}
	pruned := store.Prune(live, 24*time.Hour, now)

	if pruned != 1 {
		t.Fatalf("pruned %d records, want 1", pruned)
	}
	if _, ok := store.Get("radarr:old"); ok {
		t.Fatal("stale record survived prune")
	}
	if _, ok := store.Get("radarr:recent"); !ok {
		t.Fatal("record inside grace period was pruned")
	}
	if _, ok := store.Get("radarr:live"); !ok {
		t.Fatal("live record was pruned")
	}
}

func TestSaveIsAtomicOverExisting(t *testing.T) {
	dir := t.TempDir()
	store := Open(dir, "radarr", nil)
	store.MarkAction("radarr:a", "A", ActionRemovedOnly, time.Now().UTC())
	if err := store.Save(); err != nil {
		t.Fatalf("first save: %v", err)
	}

	store.MarkAction("radarr:b", "B", ActionRemovedOnly, time.Now().UTC())
	if err := store.Save(); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
	reloaded := Open(dir, "radarr", nil)
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded %d records, want 2", reloaded.Len())
	}
}

func TestOriginsAreDisjointFiles(t *testing.T) {
	dir := t.TempDir()
	radarr := Open(dir, "radarr", nil)
	sonarr := Open(dir, "sonarr", nil)

	radarr.MarkAction("radarr:a", "A", ActionRemovedOnly, time.Now().UTC())
	if err := radarr.Save(); err != nil {
		t.Fatalf("save radarr: %v", err)
	}
	if err := sonarr.Save(); err != nil {
		t.Fatalf("save sonarr: %v", err)
	}

	if Open(dir, "sonarr", nil).Len() != 0 {
		t.Fatal("sonarr store leaked radarr records")
	}
	if Open(dir, "radarr", nil).Len() != 1 {
		t.Fatal("radarr store lost its record")
	}
}
