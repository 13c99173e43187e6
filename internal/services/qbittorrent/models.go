package qbittorrent

// Torrent is one entry from torrents/info. Fields mirror the Web API
// names; only the ones cleanup decisions need are mapped.
type Torrent struct {
	Name         string  `json:"name"`
	Hash         string  `json:"hash"`
	TotalSize    int64   `json:"total_size"`
	SavePath     string  `json:"save_path"`
	Category     string  `json:"category"`
	Ratio        float64 `json:"ratio"`
	SeedingTime  int64   `json:"seeding_time"`
	Progress     float64 `json:"progress"`
	LastActivity int64   `json:"last_activity"`
}

// Complete reports whether the torrent has finished downloading.
func (t Torrent) Complete() bool {
	return t.Progress >= 1.0
}

// Tracker is one entry from torrents/trackers. The list includes the
// synthetic DHT/PeX/LSD pseudo-trackers, which carry non-URL values.
type Tracker struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
}
