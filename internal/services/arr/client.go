package arr

import (
	"context"
	"net/http"
)

// RemoveOptions control what happens to an item removed from the queue.
type RemoveOptions struct {
	RemoveFromClient bool
	Blocklist        bool
	SkipRedownload   bool
}

// Client is the queue-management capability one service exposes. Mutating
// calls are idempotent from the caller's perspective: removing an item
// that is already gone succeeds.
type Client interface {
	Origin() Origin
	Queue(ctx context.Context) ([]QueueItem, error)
	RemoveItem(ctx context.Context, id int64, opts RemoveOptions) error
	TriggerSearch(ctx context.Context, item QueueItem) error
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}
