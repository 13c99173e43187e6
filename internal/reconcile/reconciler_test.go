package reconcile

import (
	"context"
	"testing"
	"time"

	"arrmate/internal/config"
	"arrmate/internal/services"
	"arrmate/internal/services/arr"
	"arrmate/internal/state"
)

type fakeClient struct {
	origin     arr.Origin
	items      []arr.QueueItem
	queueErr   error
	removed    []int64
	searched   []int64
	removeOpts map[int64]arr.RemoveOptions
	removeErr  map[int64]error
	searchErr  map[int64]error
}

func (f *fakeClient) Origin() arr.Origin { return f.origin }

func (f *fakeClient) Queue(ctx context.Context) ([]arr.QueueItem, error) {
	if f.queueErr != nil {
		return nil, f.queueErr
	}
	return f.items, nil
}

func (f *fakeClient) RemoveItem(ctx context.Context, id int64, opts arr.RemoveOptions) error {
	if err, ok := f.removeErr[id]; ok {
		return err
	}
	f.removed = append(f.removed, id)
	if f.removeOpts == nil {
		f.removeOpts = make(map[int64]arr.RemoveOptions)
	}
	f.removeOpts[id] = opts
	return nil
}

func (f *fakeClient) TriggerSearch(ctx context.Context, item arr.QueueItem) error {
	if err, ok := f.searchErr[item.ID]; ok {
		return err
	}
	f.searched = append(f.searched, item.ID)
	return nil
}

func testRemediationConfig() config.Remediation {
	return config.Remediation{
		StallThreshold:        3600,
		MaxAttempts:           3,
		GracePeriod:           86400,
		BlocklistOnRemoval:    true,
		SearchRetrigger:       true,
		UnrecoverablePatterns: []string{"Found potentially dangerous file", "unsupported codec"},
	}
}

func newTestReconciler(t *testing.T, client arr.Client) (*Reconciler, *state.Store) {
	t.Helper()
	store := state.Open(t.TempDir(), string(client.Origin()), nil)
	r := New(testRemediationConfig(), client, store, nil, nil)
	return r, store
}

func TestPermanentFailureRemovedAndBlocklisted(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginRadarr,
		items: []arr.QueueItem{{
			ID:           1,
			DownloadID:   "x1",
			Title:        "Broken Release",
			Status:       arr.StatusFailed,
			ErrorMessage: "unsupported codec",
			Origin:       arr.OriginRadarr,
		}},
	}
	r, store := newTestReconciler(t, client)

	summary := r.Run(context.Background(), "run-1")

	if summary.Status != PassCompleted {
		t.Fatalf("status = %s", summary.Status)
	}
	if summary.Remediated != 1 {
		t.Fatalf("remediated = %d, want 1", summary.Remediated)
	}
	if len(client.removed) != 1 || client.removed[0] != 1 {
		t.Fatalf("removed = %v", client.removed)
	}
	opts := client.removeOpts[1]
	if !opts.RemoveFromClient || !opts.Blocklist {
		t.Fatalf("remove options = %+v, want blocklist removal", opts)
	}
	record, ok := store.Get("radarr:x1")
	if !ok {
		t.Fatal("no record created")
	}
	if record.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", record.Attempts)
	}
	if record.LastAction != state.ActionRemovedAndBlocklisted {
		t.Fatalf("last action = %q", record.LastAction)
	}
}

func TestStalledEscalatesAfterCap(t *testing.T) {
	item := arr.QueueItem{
		ID:         2,
		DownloadID: "stall1",
		Title:      "Stuck Download",
		Status:     arr.StatusDownloading,
		Added:      time.Now().Add(-2 * time.Hour),
		Size:       100,
		SizeLeft:   100,
		Origin:     arr.OriginSonarr,
		SeriesID:   7,
	}
	client := &fakeClient{origin: arr.OriginSonarr, items: []arr.QueueItem{item}}
	r, store := newTestReconciler(t, client)

	for run := 1; run <= 3; run++ {
		summary := r.Run(context.Background(), "run")
		if summary.Remediated != 1 {
			t.Fatalf("run %d: remediated = %d, want 1", run, summary.Remediated)
		}
		record, _ := store.Get("sonarr:stall1")
		if record.Attempts != run {
			t.Fatalf("run %d: attempts = %d", run, record.Attempts)
		}
	}
	if len(client.searched) != 3 {
		t.Fatalf("searches = %d, want 3", len(client.searched))
	}

	// Fourth run: cap reached, no remote call, escalation reported.
	summary := r.Run(context.Background(), "run-4")
	if summary.Escalations != 1 {
		t.Fatalf("escalations = %d, want 1", summary.Escalations)
	}
	if summary.Remediated != 0 {
		t.Fatalf("remediated = %d, want 0", summary.Remediated)
	}
	if len(client.searched) != 3 {
		t.Fatalf("remote call issued past the attempt cap: %d", len(client.searched))
	}
	record, _ := store.Get("sonarr:stall1")
	if record.Attempts != 3 {
		t.Fatalf("attempts exceeded cap: %d", record.Attempts)
	}
}

func TestAlreadyGoneIsSuccessWithoutAttempt(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginRadarr,
		items: []arr.QueueItem{{
			ID:         3,
			DownloadID: "gone1",
			Title:      "Vanished",
			Status:     arr.StatusFailed,
			Origin:     arr.OriginRadarr,
		}},
		removeErr: map[int64]error{3: services.Wrap(services.ErrNotFound, "radarr", "DELETE", "queue/3", nil)},
	}
	r, store := newTestReconciler(t, client)

	summary := r.Run(context.Background(), "run-1")

	if summary.Failures != 0 {
		t.Fatalf("failures = %d, not-found must not count as failure", summary.Failures)
	}
	if len(summary.Results) != 1 || !summary.Results[0].AlreadyGone {
		t.Fatalf("results = %+v", summary.Results)
	}
	if record, ok := store.Get("radarr:gone1"); ok && record.Attempts != 0 {
		t.Fatalf("attempts incremented for already-gone item: %d", record.Attempts)
	}
}

func TestBenignWarningLeftAlone(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginSonarr,
		items: []arr.QueueItem{{
			ID:             4,
			DownloadID:     "warn1",
			Title:          "Importing Episode",
			Status:         arr.StatusWarning,
			StatusMessages: []string{"Episode has a quality mismatch, waiting for manual import"},
			Origin:         arr.OriginSonarr,
		}},
	}
	r, store := newTestReconciler(t, client)

	summary := r.Run(context.Background(), "run-1")

	if summary.Remediated != 0 || summary.Failures != 0 {
		t.Fatalf("summary = %+v, warning must stay log-only", summary)
	}
	if len(client.removed) != 0 || len(client.searched) != 0 {
		t.Fatalf("remote calls issued for a benign warning: removed=%v searched=%v", client.removed, client.searched)
	}
	if _, ok := store.Get("sonarr:warn1"); ok {
		t.Fatal("record created for a benign warning")
	}
}

func TestDangerousFileWarningRemoved(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginSonarr,
		items: []arr.QueueItem{{
			ID:             5,
			DownloadID:     "danger1",
			Title:          "Suspicious Release",
			Status:         arr.StatusWarning,
			StatusMessages: []string{"Found potentially dangerous file setup.exe"},
			Origin:         arr.OriginSonarr,
		}},
	}
	r, store := newTestReconciler(t, client)

	summary := r.Run(context.Background(), "run-1")

	if summary.Remediated != 1 {
		t.Fatalf("remediated = %d, want 1", summary.Remediated)
	}
	opts := client.removeOpts[5]
	if !opts.RemoveFromClient || !opts.Blocklist {
		t.Fatalf("remove options = %+v, want blocklist removal", opts)
	}
	if record, ok := store.Get("sonarr:danger1"); !ok || record.Attempts != 1 {
		t.Fatalf("record = %+v ok=%v", record, ok)
	}
}

func TestStalledWarningRetriggersSearch(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginSonarr,
		items: []arr.QueueItem{{
			ID:           6,
			DownloadID:   "stallwarn",
			Title:        "Dead Torrent",
			Status:       arr.StatusWarning,
			ErrorMessage: "The download is stalled with no connections",
			Origin:       arr.OriginSonarr,
			SeriesID:     9,
		}},
	}
	r, _ := newTestReconciler(t, client)

	summary := r.Run(context.Background(), "run-1")

	if summary.Remediated != 1 {
		t.Fatalf("remediated = %d, want 1", summary.Remediated)
	}
	if len(client.searched) != 1 || client.searched[0] != 6 {
		t.Fatalf("searched = %v, want stalled warning routed to search", client.searched)
	}
	if len(client.removed) != 0 {
		t.Fatalf("removed = %v, stalled warning must not be removed", client.removed)
	}
}

func TestItemFailureDoesNotAbortBatch(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginRadarr,
		items: []arr.QueueItem{
			{ID: 1, DownloadID: "a", Title: "A", Status: arr.StatusFailed, Origin: arr.OriginRadarr},
			{ID: 2, DownloadID: "b", Title: "B", Status: arr.StatusFailed, Origin: arr.OriginRadarr},
		},
		removeErr: map[int64]error{1: services.Wrap(services.ErrTransient, "radarr", "DELETE", "boom", nil)},
	}
	r, store := newTestReconciler(t, client)

	summary := r.Run(context.Background(), "run-1")

	if summary.Failures != 1 || summary.Remediated != 1 {
		t.Fatalf("failures=%d remediated=%d, want 1/1", summary.Failures, summary.Remediated)
	}
	// The failed item keeps a clean record so the next pass retries it.
	if _, ok := store.Get("radarr:a"); ok {
		t.Fatal("failed action must not create a record")
	}
	if record, ok := store.Get("radarr:b"); !ok || record.Attempts != 1 {
		t.Fatalf("successful item record = %+v ok=%v", record, ok)
	}
}

func TestFetchFailureDegradesWithoutStoreMutation(t *testing.T) {
	client := &fakeClient{
		origin:   arr.OriginSonarr,
		queueErr: services.Wrap(services.ErrTransient, "sonarr", "GET", "timeout", nil),
	}
	r, store := newTestReconciler(t, client)
	store.MarkAction("sonarr:keep", "Keep", state.ActionRemovedOnly, time.Now().Add(-48*time.Hour))

	summary := r.Run(context.Background(), "run-1")

	if summary.Status != PassDegraded || !summary.Transient {
		t.Fatalf("summary = %+v, want transient degraded", summary)
	}
	if summary.Completed() {
		t.Fatal("degraded pass reported completed")
	}
	// No pruning on a failed fetch: absence from a queue we never saw
	// proves nothing.
	if _, ok := store.Get("sonarr:keep"); !ok {
		t.Fatal("record pruned despite failed fetch")
	}
}

func TestHealthyQueueNothingToDo(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginRadarr,
		items: []arr.QueueItem{
			{ID: 1, DownloadID: "ok", Title: "Fine", Status: arr.StatusDownloading, Added: time.Now(), Size: 100, SizeLeft: 20, Origin: arr.OriginRadarr},
		},
	}
	r, _ := newTestReconciler(t, client)

	summary := r.Run(context.Background(), "run-1")
	if summary.Remediated != 0 || summary.Failures != 0 || summary.Escalations != 0 {
		t.Fatalf("summary = %+v, want untouched queue", summary)
	}
	if summary.Headline() != "nothing to do" {
		t.Fatalf("headline = %q", summary.Headline())
	}
}

func TestPruneRetiresStaleRecords(t *testing.T) {
	client := &fakeClient{origin: arr.OriginRadarr}
	r, store := newTestReconciler(t, client)
	store.MarkAction("radarr:stale", "Stale", state.ActionRemovedOnly, time.Now().Add(-48*time.Hour))

	summary := r.Run(context.Background(), "run-1")

	if summary.Pruned != 1 {
		t.Fatalf("pruned = %d, want 1", summary.Pruned)
	}
	if _, ok := store.Get("radarr:stale"); ok {
		t.Fatal("stale record survived")
	}
}

func TestDeadlineAbandonsRemainingItems(t *testing.T) {
	items := make([]arr.QueueItem, 0, 5)
	for i := int64(1); i <= 5; i++ {
		items = append(items, arr.QueueItem{ID: i, Title: "Item", Status: arr.StatusFailed, Origin: arr.OriginRadarr})
	}
	client := &fakeClient{origin: arr.OriginRadarr, items: items}
	r, store := newTestReconciler(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := r.Run(ctx, "run-1")

	if !summary.Partial {
		t.Fatal("expected partial completion")
	}
	if summary.Remediated != 0 {
		t.Fatalf("remediated = %d with cancelled context", summary.Remediated)
	}
	// The store write still happened: reloading must not error and the
	// pass must not report a store failure.
	if summary.Status != PassCompleted {
		t.Fatalf("status = %s", summary.Status)
	}
	if store.Len() != 0 {
		t.Fatalf("unexpected records: %d", store.Len())
	}
}

func TestSummaryHeadlines(t *testing.T) {
	cases := []struct {
		summary Summary
		want    string
	}{
		{Summary{Status: PassDegraded}, "degraded (service unreachable)"},
		{Summary{Status: PassStoreFailed}, "state write failed"},
		{Summary{Status: PassCompleted, Escalations: 2}, "escalations pending (2)"},
		{Summary{Status: PassCompleted, Remediated: 3}, "remediated 3 items"},
		{Summary{Status: PassCompleted}, "nothing to do"},
	}
	for _, tc := range cases {
		if got := tc.summary.Headline(); got != tc.want {
			t.Errorf("Headline() = %q, want %q", got, tc.want)
		}
	}
}

func TestEscalationDistinctFromFailure(t *testing.T) {
	client := &fakeClient{
		origin: arr.OriginRadarr,
		items: []arr.QueueItem{
			{ID: 1, DownloadID: "capped", Title: "Capped", Status: arr.StatusFailed, Origin: arr.OriginRadarr},
		},
	}
	r, store := newTestReconciler(t, client)
	now := time.Now()
	for i := 0; i < 3; i++ {
		store.MarkAction("radarr:capped", "Capped", state.ActionRemovedOnly, now)
	}

	summary := r.Run(context.Background(), "run-1")

	if summary.Escalations != 1 || summary.Failures != 0 {
		t.Fatalf("escalations=%d failures=%d", summary.Escalations, summary.Failures)
	}
	if len(client.removed) != 0 {
		t.Fatal("capped item still triggered a remote call")
	}
}
