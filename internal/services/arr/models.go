package arr

import (
	"strings"
	"time"
)

// Origin identifies which service produced a queue item.
type Origin string

const (
	OriginRadarr Origin = "radarr"
	OriginSonarr Origin = "sonarr"
)

// Status is the normalized lifecycle state of a queue item.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusImporting   Status = "importing"
	StatusWarning     Status = "warning"
	StatusFailed      Status = "failed"
	StatusCompleted   Status = "completed"
	StatusUnknown     Status = "unknown"
)

// QueueItem is a snapshot of one tracked download. It lives for the
// duration of a single reconciliation pass and is rebuilt on every fetch.
type QueueItem struct {
	ID                  int64
	MovieID             int64
	SeriesID            int64
	DownloadID          string
	Title               string
	Status              Status
	RawStatus           string
	ErrorMessage        string
	StatusMessages      []string
	Protocol            string
	Size                float64
	SizeLeft            float64
	Added               time.Time
	EstimatedCompletion time.Time
	Origin              Origin
}

// HasProgress reports whether any payload has been downloaded.
func (q QueueItem) HasProgress() bool {
	return q.Size > 0 && q.SizeLeft < q.Size
}

// queuePage mirrors the paged response of GET /api/v3/queue.
type queuePage struct {
	TotalRecords int             `json:"totalRecords"`
	Records      []queueResource `json:"records"`
}

type queueResource struct {
	ID                      int64           `json:"id"`
	MovieID                 int64           `json:"movieId"`
	SeriesID                int64           `json:"seriesId"`
	DownloadID              string          `json:"downloadId"`
	Title                   string          `json:"title"`
	Status                  string          `json:"status"`
	TrackedDownloadStatus   string          `json:"trackedDownloadStatus"`
	TrackedDownloadState    string          `json:"trackedDownloadState"`
	ErrorMessage            string          `json:"errorMessage"`
	StatusMessages          []statusMessage `json:"statusMessages"`
	Protocol                string          `json:"protocol"`
	Size                    float64         `json:"size"`
	SizeLeft                float64         `json:"sizeleft"`
	Added                   string          `json:"added"`
	EstimatedCompletionTime string          `json:"estimatedCompletionTime"`
}

type statusMessage struct {
	Title    string   `json:"title"`
	Messages []string `json:"messages"`
}

type healthResource struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (r queueResource) toItem(origin Origin) QueueItem {
	item := QueueItem{
		ID:           r.ID,
		MovieID:      r.MovieID,
		SeriesID:     r.SeriesID,
		DownloadID:   strings.ToLower(strings.TrimSpace(r.DownloadID)),
		Title:        strings.TrimSpace(r.Title),
		Status:       normalizeStatus(r.Status, r.TrackedDownloadStatus, r.TrackedDownloadState),
		RawStatus:    r.Status,
		ErrorMessage: strings.TrimSpace(r.ErrorMessage),
		Protocol:     strings.TrimSpace(r.Protocol),
		Size:         r.Size,
		SizeLeft:     r.SizeLeft,
		Origin:       origin,
	}
	for _, sm := range r.StatusMessages {
		item.StatusMessages = append(item.StatusMessages, sm.Messages...)
	}
	if ts, err := time.Parse(time.RFC3339, r.Added); err == nil {
		item.Added = ts
	}
	if ts, err := time.Parse(time.RFC3339, r.EstimatedCompletionTime); err == nil {
		item.EstimatedCompletion = ts
	}
	return item
}

// normalizeStatus collapses the service's status triple into one enum.
// trackedDownloadStatus wins over the raw queue status: a "completed"
// download with a warning import is a warning from the operator's view.
func normalizeStatus(raw, trackedStatus, trackedState string) Status {
	raw = strings.ToLower(strings.TrimSpace(raw))
	trackedStatus = strings.ToLower(strings.TrimSpace(trackedStatus))
	trackedState = strings.ToLower(strings.TrimSpace(trackedState))

	switch {
	case raw == "failed" || trackedStatus == "error":
		return StatusFailed
	case raw == "warning" || trackedStatus == "warning":
		return StatusWarning
	case trackedState == "importpending" || trackedState == "importing":
		return StatusImporting
	}

	switch raw {
	case "queued", "delay", "paused", "downloadclientunavailable":
		return StatusQueued
	case "downloading":
		return StatusDownloading
	case "completed":
		return StatusCompleted
	default:
		return StatusUnknown
	}
}
