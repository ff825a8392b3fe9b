// Package notify announces finished index builds on Kafka.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/resilience"
)

// EventType labels index-complete messages.
const EventType = "index.complete"

// IndexComplete is the event payload published after a build.
type IndexComplete struct {
	IndexDir  string    `json:"index_dir"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	Blocks    int       `json:"blocks"`
	BuiltAt   time.Time `json:"built_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// AttemptTimeout bounds a single publish attempt.
const AttemptTimeout = 10 * time.Second

type Notifier struct {
	pub     Publisher
	retry   resilience.RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

func New(pub Publisher, retry resilience.RetryConfig) *Notifier {
	return &Notifier{
		pub:     pub,
		retry:   retry,
		timeout: AttemptTimeout,
		logger:  slog.Default().With("component", "build-notifier"),
	}
}

// IndexBuilt publishes ev with retries. A failure is logged and returned but
// leaves the index valid.
func (n *Notifier) IndexBuilt(ctx context.Context, ev IndexComplete) error {
	event := kafka.Event{Key: ev.IndexDir, Type: EventType, Value: ev}
	err := resilience.Retry(ctx, "publish-index-complete", n.retry, func(ctx context.Context) error {
		return resilience.WithTimeout(ctx, n.timeout, "publish", func(ctx context.Context) error {
			return n.pub.Publish(ctx, event)
		})
	})
	if err != nil {
		n.logger.Error("index-complete event not published", "index_dir", ev.IndexDir, "error", err)
		return err
	}
	n.logger.Info("index-complete event published", "index_dir", ev.IndexDir, "terms", ev.Terms)
	return nil
}
