package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"arrmate/internal/config"
	"arrmate/internal/reconcile"
)

const userAgent = "arrmate/0.1.0"

// Service is the notification surface exposed to the run coordinator.
type Service interface {
	NotifyPassSummary(ctx context.Context, summary reconcile.Summary) error
	NotifyEscalations(ctx context.Context, summary reconcile.Summary) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		cfg:      cfg,
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	cfg      config.Notifications
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPassSummary(ctx context.Context, summary reconcile.Summary) error {
	if !n.cfg.Summary {
		return nil
	}
	message := fmt.Sprintf("%s: %s (%d queued, %d remediated, %d failed)",
		summary.Service, summary.Headline(), summary.Items, summary.Remediated, summary.Failures)
	data := payload{
		title:   "arrmate - Pass Complete",
		message: message,
		tags:    []string{"arrmate", string(summary.Service), "summary"},
	}
	if !summary.Completed() {
		data.title = "arrmate - Pass Degraded"
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEscalations(ctx context.Context, summary reconcile.Summary) error {
	if !n.cfg.Escalations || summary.Escalations == 0 {
		return nil
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%d items need operator attention:", summary.Escalations)
	for _, result := range summary.Results {
		if !result.Escalated {
			continue
		}
		fmt.Fprintf(&builder, "\n- %s (%s, %d attempts)", result.Title, result.Category, result.Attempt)
	}

	data := payload{
		title:    fmt.Sprintf("arrmate - %s Escalations", summary.Service),
		message:  builder.String(),
		tags:     []string{"arrmate", string(summary.Service), "escalation"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.cfg.Errors {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "arrmate - Error",
		message:  builder.String(),
		tags:     []string{"arrmate", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "arrmate - Test",
		message:  "Notification system test",
		tags:     []string{"arrmate", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPassSummary(context.Context, reconcile.Summary) error { return nil }
func (noopService) NotifyEscalations(context.Context, reconcile.Summary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
