package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"arrmate/internal/logging"
	"arrmate/internal/services"
)

const (
	apiBase          = "/api/v3"
	retryMaxAttempts = 3
	retryMaxInterval = 5 * time.Second
)

type httpClient struct {
	origin  Origin
	baseURL string
	apiKey  string
	timeout time.Duration
	client  HTTPDoer
	logger  *slog.Logger
}

// NewClient constructs an HTTP-backed queue client for one service.
// A nil doer falls back to a plain http.Client.
func NewClient(origin Origin, baseURL, apiKey string, timeout time.Duration, doer HTTPDoer, logger *slog.Logger) Client {
	if doer == nil {
		doer = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		origin:  origin,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
		client:  doer,
		logger:  logging.NewComponentLogger(logger, string(origin)+"_client"),
	}
}

func (c *httpClient) Origin() Origin { return c.origin }

// Queue lists every queued download. The endpoint is paged, so the total
// is read first (pageSize=0) and the full page fetched second. A failing
// download-client health check aborts the fetch: the queue cannot move
// while the client is down, and acting on it would remove items that are
// merely waiting.
func (c *httpClient) Queue(ctx context.Context) ([]QueueItem, error) {
	if err := c.checkDownloadClientHealth(ctx); err != nil {
		return nil, err
	}

	var probe queuePage
	if err := c.doJSON(ctx, http.MethodGet, apiBase+"/queue", url.Values{"pageSize": {"0"}}, nil, &probe); err != nil {
		return nil, err
	}
	if probe.TotalRecords == 0 {
		return nil, nil
	}

	var page queuePage
	query := url.Values{"pageSize": {strconv.Itoa(probe.TotalRecords)}}
	if err := c.doJSON(ctx, http.MethodGet, apiBase+"/queue", query, nil, &page); err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(page.Records))
	for _, record := range page.Records {
		items = append(items, record.toItem(c.origin))
	}
	return items, nil
}

func (c *httpClient) checkDownloadClientHealth(ctx context.Context) error {
	var checks []healthResource
	if err := c.doJSON(ctx, http.MethodGet, apiBase+"/health", nil, nil, &checks); err != nil {
		return err
	}
	for _, check := range checks {
		if strings.EqualFold(check.Type, "error") && strings.EqualFold(check.Source, "DownloadClientCheck") {
			return services.Wrap(services.ErrTransient, string(c.origin), "health", "download client check failed", nil)
		}
	}
	return nil
}

func (c *httpClient) RemoveItem(ctx context.Context, id int64, opts RemoveOptions) error {
	query := url.Values{
		"removeFromClient": {strconv.FormatBool(opts.RemoveFromClient)},
		"blocklist":        {strconv.FormatBool(opts.Blocklist)},
		"skipRedownload":   {strconv.FormatBool(opts.SkipRedownload)},
	}
	path := fmt.Sprintf("%s/queue/%d", apiBase, id)
	return c.doJSON(ctx, http.MethodDelete, path, query, nil, nil)
}

// TriggerSearch asks the service to search for a replacement release.
func (c *httpClient) TriggerSearch(ctx context.Context, item QueueItem) error {
	var body map[string]any
	switch c.origin {
	case OriginRadarr:
		if item.MovieID == 0 {
			return services.Wrap(services.ErrPermanent, string(c.origin), "search", "queue item has no movie id", nil)
		}
		body = map[string]any{"name": "MoviesSearch", "movieIds": []int64{item.MovieID}}
	case OriginSonarr:
		if item.SeriesID == 0 {
			return services.Wrap(services.ErrPermanent, string(c.origin), "search", "queue item has no series id", nil)
		}
		body = map[string]any{"name": "SeriesSearch", "seriesId": item.SeriesID}
	default:
		return services.Wrap(services.ErrPermanent, string(c.origin), "search", "unknown origin", nil)
	}
	return c.doJSON(ctx, http.MethodPost, apiBase+"/command", nil, body, nil)
}

// doJSON performs one API call with a per-call timeout, retrying transient
// failures with bounded exponential backoff.
func (c *httpClient) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	operation := method + " " + path
	bo := backoff.WithContext(backoff.WithMaxRetries(newBackoff(), retryMaxAttempts-1), ctx)
	return backoff.Retry(func() error {
		err := c.doJSONOnce(ctx, method, path, query, body, out)
		if err != nil && !services.IsTransient(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			c.logger.Debug("retrying request", logging.String("operation", operation), logging.Error(err))
		}
		return err
	}, bo)
}

func newBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = retryMaxInterval
	return bo
}

func (c *httpClient) doJSONOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrPermanent, string(c.origin), method, "marshal request body", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return services.Wrap(services.ErrPermanent, string(c.origin), method, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, string(c.origin), method, "request failed", err)
	}
	defer resp.Body.Close()

	if err := c.classifyStatus(method, path, resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrPermanent, string(c.origin), method, "decode response", err)
	}
	return nil
}

func (c *httpClient) classifyStatus(method, path string, resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code < 300:
		return nil
	case code == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, string(c.origin), method, path, nil)
	case code == http.StatusTooManyRequests || code >= 500:
		return services.Wrap(services.ErrTransient, string(c.origin), method, fmt.Sprintf("%s returned %d", path, code), nil)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrPermanent, string(c.origin), method,
			fmt.Sprintf("%s returned %d: %s", path, code, strings.TrimSpace(string(snippet))), nil)
	}
}
