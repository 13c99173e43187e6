package cleanup

import (
	"context"
	"net/url"
	"strings"

	"arrmate/internal/services"
	"arrmate/internal/services/arr"
	"arrmate/internal/services/qbittorrent"
)

// candidate is one torrent under consideration, with its tracker list
// already resolved.
type candidate struct {
	torrent  qbittorrent.Torrent
	trackers []string // tracker hostnames, pseudo-trackers excluded
}

// filter removes torrents that must be kept. What comes out the other
// end of the chain is deleted.
type filter interface {
	name() string
	apply(ctx context.Context, candidates []candidate) ([]candidate, error)
}

// seedFilter keeps only torrents that finished downloading and reached
// the configured ratio and seeding time.
type seedFilter struct {
	minRatio          float64
	minSeedingSeconds int64
}

func (seedFilter) name() string { return "seed" }

func (f seedFilter) apply(_ context.Context, candidates []candidate) ([]candidate, error) {
	kept := candidates[:0]
	for _, c := range candidates {
		if !c.torrent.Complete() {
			continue
		}
		if c.torrent.Ratio < f.minRatio {
			continue
		}
		if c.torrent.SeedingTime < f.minSeedingSeconds {
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// categoryFilter drops torrents in an ignored category.
type categoryFilter struct {
	ignored map[string]struct{}
}

func newCategoryFilter(categories []string) categoryFilter {
	ignored := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		ignored[strings.ToLower(strings.TrimSpace(category))] = struct{}{}
	}
	return categoryFilter{ignored: ignored}
}

func (categoryFilter) name() string { return "category" }

func (f categoryFilter) apply(_ context.Context, candidates []candidate) ([]candidate, error) {
	if len(f.ignored) == 0 {
		return candidates, nil
	}
	kept := candidates[:0]
	for _, c := range candidates {
		if _, skip := f.ignored[strings.ToLower(c.torrent.Category)]; skip {
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// trackerFilter drops torrents announced to an ignored tracker domain.
type trackerFilter struct {
	ignored map[string]struct{}
}

func newTrackerFilter(domains []string) trackerFilter {
	ignored := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		ignored[strings.ToLower(strings.TrimSpace(domain))] = struct{}{}
	}
	return trackerFilter{ignored: ignored}
}

func (trackerFilter) name() string { return "tracker" }

func (f trackerFilter) apply(_ context.Context, candidates []candidate) ([]candidate, error) {
	if len(f.ignored) == 0 {
		return candidates, nil
	}
	kept := candidates[:0]
	for _, c := range candidates {
		skip := false
		for _, host := range c.trackers {
			if _, ok := f.ignored[strings.ToLower(host)]; ok {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// queueFilter drops torrents whose hash matches a download ID still in
// an *arr queue. A failed queue fetch aborts the whole chain: deleting
// blind could take out a torrent a service is mid-import on.
type queueFilter struct {
	clients []arr.Client
}

func (queueFilter) name() string { return "arr_queue" }

func (f queueFilter) apply(ctx context.Context, candidates []candidate) ([]candidate, error) {
	live := make(map[string]struct{})
	for _, client := range f.clients {
		items, err := client.Queue(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, string(client.Origin()), "cleanup",
				"queue fetch failed, skipping cleanup", err)
		}
		for _, item := range items {
			if id := strings.ToLower(strings.TrimSpace(item.DownloadID)); id != "" {
				live[id] = struct{}{}
			}
		}
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if _, queued := live[strings.ToLower(c.torrent.Hash)]; queued {
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// trackerHosts extracts announce hostnames, dropping the DHT/PeX/LSD
// pseudo-tracker entries that are not URLs.
func trackerHosts(trackers []qbittorrent.Tracker) []string {
	hosts := make([]string, 0, len(trackers))
	for _, tracker := range trackers {
		parsed, err := url.Parse(tracker.URL)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		hosts = append(hosts, parsed.Hostname())
	}
	return hosts
}
