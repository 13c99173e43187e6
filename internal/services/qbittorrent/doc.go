// Package qbittorrent implements a minimal qBittorrent Web API client
// covering the calls the cleanup task needs: cookie login, torrent
// listing, tracker lookup, and bulk deletion.
package qbittorrent
