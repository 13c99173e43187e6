package qbittorrent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"arrmate/internal/logging"
	"arrmate/internal/services"
)

const (
	apiBase     = "/api/v2"
	serviceName = "qbittorrent"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to one qBittorrent instance. Authentication is the Web
// API's SID cookie; the client logs in lazily and re-authenticates once
// when the session expires mid-call.
type Client struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
	client   HTTPDoer
	logger   *slog.Logger

	mu  sync.Mutex
	sid string
}

// NewClient constructs a qBittorrent Web API client. A nil doer falls
// back to a plain http.Client.
func NewClient(baseURL, username, password string, timeout time.Duration, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username: username,
		password: password,
		timeout:  timeout,
		client:   doer,
		logger:   logging.NewComponentLogger(logger, "qbittorrent_client"),
	}
}

// Torrents lists every torrent the client knows about.
func (c *Client) Torrents(ctx context.Context) ([]Torrent, error) {
	var torrents []Torrent
	if err := c.do(ctx, http.MethodGet, apiBase+"/torrents/info", nil, nil, &torrents); err != nil {
		return nil, err
	}
	return torrents, nil
}

// Trackers lists the trackers of one torrent, pseudo-trackers included.
func (c *Client) Trackers(ctx context.Context, hash string) ([]Tracker, error) {
	query := url.Values{"hash": {hash}}
	var trackers []Tracker
	if err := c.do(ctx, http.MethodGet, apiBase+"/torrents/trackers", query, nil, &trackers); err != nil {
		return nil, err
	}
	return trackers, nil
}

// DeleteTorrents removes the given torrents in one call. deleteFiles
// also removes the downloaded data from disk.
func (c *Client) DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error {
	if len(hashes) == 0 {
		return nil
	}
	form := url.Values{
		"hashes":      {strings.Join(hashes, "|")},
		"deleteFiles": {strconv.FormatBool(deleteFiles)},
	}
	return c.do(ctx, http.MethodPost, apiBase+"/torrents/delete", nil, form, nil)
}

// do performs one authenticated API call. A 403 means the SID expired;
// the session is discarded and the call retried once after a fresh login.
func (c *Client) do(ctx context.Context, method, path string, query, form url.Values, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		sid, err := c.session(ctx)
		if err != nil {
			return err
		}
		retry, err := c.doOnce(ctx, method, path, query, form, sid, out)
		if !retry {
			return err
		}
		c.mu.Lock()
		if c.sid == sid {
			c.sid = ""
		}
		c.mu.Unlock()
		c.logger.Debug("session expired, re-authenticating", logging.String("operation", method+" "+path))
	}
	return services.Wrap(services.ErrPermanent, serviceName, method, "authentication rejected after retry", nil)
}

func (c *Client) doOnce(ctx context.Context, method, path string, query, form url.Values, sid string, out any) (retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if form != nil {
		reader = strings.NewReader(form.Encode())
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, services.Wrap(services.ErrPermanent, serviceName, method, "build request", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: "SID", Value: sid})

	resp, err := c.client.Do(req)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, serviceName, method, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return true, nil
	}
	if err := classifyStatus(method, path, resp); err != nil {
		return false, err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, services.Wrap(services.ErrPermanent, serviceName, method, "decode response", err)
	}
	return false, nil
}

// session returns a valid SID, logging in when none is held.
func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sid != "" {
		return c.sid, nil
	}

	sid, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.sid = sid
	return sid, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiBase+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, serviceName, "login", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// qBittorrent rejects logins whose Referer does not match its own host.
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, serviceName, "login", "request failed", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(http.MethodPost, "/auth/login", resp); err != nil {
		return "", err
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64))
	if strings.TrimSpace(string(body)) != "Ok." {
		return "", services.Wrap(services.ErrPermanent, serviceName, "login", "credentials rejected", nil)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "SID" && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", services.Wrap(services.ErrPermanent, serviceName, "login", "no session cookie in response", nil)
}

func classifyStatus(method, path string, resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code < 300:
		return nil
	case code == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, serviceName, method, path, nil)
	case code == http.StatusTooManyRequests || code >= 500:
		return services.Wrap(services.ErrTransient, serviceName, method, fmt.Sprintf("%s returned %d", path, code), nil)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrPermanent, serviceName, method,
			fmt.Sprintf("%s returned %d: %s", path, code, strings.TrimSpace(string(snippet))), nil)
	}
}
