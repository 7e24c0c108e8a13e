// Package notifications publishes run events to an ntfy topic.
package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reelsort/internal/config"
	"reelsort/internal/logging"
	"reelsort/internal/services"
)

// Event classifies a notification for tagging and priority.
type Event string

const (
	EventRunCompleted Event = "run_completed"
	EventUnidentified Event = "unidentified"
	EventError        Event = "error"
	EventTest         Event = "test"
)

// Service publishes events. Failures are the caller's to log, never to act on.
type Service interface {
	Publish(ctx context.Context, event Event, title, message string) error
}

type ntfyService struct {
	topicURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, string, string) error { return nil }

// NewService builds an ntfy publisher, or a no-op when no topic is
// configured.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		topicURL: topic,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Notifications.RequestTimeout) * time.Second,
		},
		logger: logging.NewComponentLogger(logger, "notifications"),
	}
}

func (s *ntfyService) Publish(ctx context.Context, event Event, title, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.topicURL,
		strings.NewReader(message))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "notifications", "publish", "build request", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Tags", tagsFor(event))
	req.Header.Set("Priority", priorityFor(event))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "notifications", "publish", "send", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return services.Wrap(services.ErrExternalTool, "notifications", "publish",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	s.logger.Debug("notification sent",
		logging.String("event", string(event)), logging.String("title", title))
	return nil
}

func tagsFor(event Event) string {
	switch event {
	case EventRunCompleted:
		return "clapper,white_check_mark"
	case EventUnidentified:
		return "question"
	case EventError:
		return "rotating_light"
	default:
		return "bell"
	}
}

func priorityFor(event Event) string {
	switch event {
	case EventError:
		return "high"
	default:
		return "default"
	}
}
