package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studioq/internal/config"
	"studioq/internal/queue"
)

const userAgent = "studioq/0.1.0"

// Service defines the push-notification surface for job lifecycle events.
type Service interface {
	NotifyJobCompleted(ctx context.Context, job *queue.Job) error
	NotifyJobFailed(ctx context.Context, job *queue.Job) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// AttachTerminal subscribes the service to a registry so completed and failed
// jobs trigger pushes. The returned cancel detaches it.
func AttachTerminal(registry *Registry, svc Service) func() {
	if registry == nil || svc == nil {
		return func() {}
	}
	return registry.Subscribe(func(job *queue.Job) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		switch job.Status {
		case queue.StatusCompleted:
			_ = svc.NotifyJobCompleted(ctx, job)
		case queue.StatusFailed:
			_ = svc.NotifyJobFailed(ctx, job)
		}
	})
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

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, job *queue.Job) error {
	data := payload{
		title:    "studioq - Job Complete",
		message:  fmt.Sprintf("Finished %s job: %s", job.Type, job.Description),
		tags:     []string{"studioq", string(job.Type), "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, job *queue.Job) error {
	reason := strings.TrimSpace(job.Error)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "studioq - Job Failed",
		message:  fmt.Sprintf("Failed %s job: %s\nReason: %s", job.Type, job.Description, reason),
		tags:     []string{"studioq", string(job.Type), "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "studioq - Test",
		message:  "Notification system test",
		tags:     []string{"studioq", "test"},
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

func (noopService) NotifyJobCompleted(context.Context, *queue.Job) error { return nil }
func (noopService) NotifyJobFailed(context.Context, *queue.Job) error    { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
