package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"therapyfinder/internal/config"
)

const userAgent = "therapyfinder/0.1"

// RunReport summarizes one batch run for a notification.
type RunReport struct {
	Command       string
	Scopes        int
	ScopesAborted int
	Created       int
	Updated       int
	Failed        int
	Duration      time.Duration
	QuotaExceeded bool
}

// Service sends run notifications.
type Service interface {
	NotifyRunCompleted(ctx context.Context, report RunReport) error
	NotifyQuotaExceeded(ctx context.Context, report RunReport) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
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
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, report RunReport) error {
	command := commandName(report.Command)
	message := fmt.Sprintf("%s finished in %s\n%d scopes, %d new, %d updated",
		command, report.Duration.Round(time.Second), report.Scopes, report.Created, report.Updated)
	if report.Failed > 0 || report.ScopesAborted > 0 {
		message += fmt.Sprintf("\n%d records failed, %d scopes aborted", report.Failed, report.ScopesAborted)
	}
	return n.send(ctx, payload{
		title:   "Finder - Run Complete",
		message: message,
		tags:    []string{"finder", command, "completed"},
	})
}

func (n *ntfyService) NotifyQuotaExceeded(ctx context.Context, report RunReport) error {
	command := commandName(report.Command)
	return n.send(ctx, payload{
		title: "Finder - Quota Exceeded",
		message: fmt.Sprintf("%s stopped after %d scopes: places quota exhausted\n%d new, %d updated before the stop",
			command, report.Scopes, report.Created, report.Updated),
		tags:     []string{"finder", command, "quota"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if err == nil {
		return nil
	}
	var builder strings.Builder
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(contextLabel)
		builder.WriteString(": ")
	}
	builder.WriteString(err.Error())
	return n.send(ctx, payload{
		title:    "Finder - Error",
		message:  builder.String(),
		tags:     []string{"finder", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Finder - Test",
		message:  "Notification system test",
		tags:     []string{"finder", "test"},
		priority: "low",
	})
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

func commandName(command string) string {
	if command = strings.TrimSpace(command); command == "" {
		return "run"
	}
	return command
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunReport) error  { return nil }
func (noopService) NotifyQuotaExceeded(context.Context, RunReport) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
