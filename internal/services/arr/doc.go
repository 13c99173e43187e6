// Package arr wraps the Radarr and Sonarr v3 REST APIs behind a single
// queue-management capability: list the download queue, remove an item, and
// trigger a replacement search. Both services share the wire format; the
// few differences (search command names, movie vs. series IDs) are handled
// per origin.
package arr
