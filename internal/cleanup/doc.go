// Package cleanup deletes fully seeded torrents from qBittorrent. A
// torrent must survive every filter in the chain to be deleted; anything
// still referenced by a Radarr or Sonarr queue is always kept.
package cleanup
