package cleanup

import (
	"context"
	"log/slog"

	"arrmate/internal/config"
	"arrmate/internal/logging"
	"arrmate/internal/services/arr"
	"arrmate/internal/services/qbittorrent"
)

// TorrentClient is the slice of the qBittorrent API the task needs.
type TorrentClient interface {
	Torrents(ctx context.Context) ([]qbittorrent.Torrent, error)
	Trackers(ctx context.Context, hash string) ([]qbittorrent.Tracker, error)
	DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error
}

// Result reports one cleanup run.
type Result struct {
	Examined int
	Deleted  int
	DryRun   bool
	Names    []string
}

// Task runs the cleanup filter chain against one qBittorrent instance.
type Task struct {
	cfg     config.Cleanup
	client  TorrentClient
	filters []filter
	logger  *slog.Logger
}

// New builds a cleanup task. The arr clients guard against deleting
// torrents a service is still importing; pass every enabled one.
func New(cfg config.Cleanup, client TorrentClient, arrs []arr.Client, logger *slog.Logger) *Task {
	return &Task{
		cfg:    cfg,
		client: client,
		filters: []filter{
			seedFilter{minRatio: cfg.MinRatio, minSeedingSeconds: int64(cfg.MinSeedingSeconds)},
			newCategoryFilter(cfg.IgnoredCategories),
			newTrackerFilter(cfg.IgnoredTrackers),
			queueFilter{clients: arrs},
		},
		logger: logging.NewComponentLogger(logger, "cleanup"),
	}
}

// Run lists torrents, applies the filter chain, and deletes the
// survivors. With dry_run set it only reports what would go.
func (t *Task) Run(ctx context.Context) (Result, error) {
	torrents, err := t.client.Torrents(ctx)
	if err != nil {
		return Result{}, err
	}

	candidates := make([]candidate, 0, len(torrents))
	for _, torrent := range torrents {
		trackers, err := t.client.Trackers(ctx, torrent.Hash)
		if err != nil {
			t.logger.Warn("tracker lookup failed, keeping torrent",
				logging.String("torrent", torrent.Name),
				logging.Error(err))
			continue
		}
		candidates = append(candidates, candidate{torrent: torrent, trackers: trackerHosts(trackers)})
	}

	result := Result{Examined: len(torrents), DryRun: t.cfg.DryRun}

	for _, f := range t.filters {
		candidates, err = f.apply(ctx, candidates)
		if err != nil {
			return Result{}, err
		}
		t.logger.Debug("filter applied",
			logging.String("filter", f.name()),
			logging.Int("remaining", len(candidates)))
	}

	if len(candidates) == 0 {
		t.logger.Debug("no torrents eligible for deletion")
		return result, nil
	}

	hashes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		hashes = append(hashes, c.torrent.Hash)
		result.Names = append(result.Names, c.torrent.Name)
		t.logger.Info("torrent eligible for deletion",
			logging.String("torrent", c.torrent.Name),
			logging.Float64("ratio", c.torrent.Ratio),
			logging.Bool("dry_run", t.cfg.DryRun))
	}

	if t.cfg.DryRun {
		return result, nil
	}

	if err := t.client.DeleteTorrents(ctx, hashes, t.cfg.DeleteFiles); err != nil {
		return result, err
	}
	result.Deleted = len(hashes)
	t.logger.Info("torrents deleted", logging.Int("count", result.Deleted))
	return result, nil
}
