package media

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
)

// DeletionRequest is published when stored images become orphaned:
// replaced on update, dropped from a gallery, or left behind by a
// deleted row.
type DeletionRequest struct {
	URLs []string `json:"urls"`
}

// DeletionPublisher hands orphaned image URLs to the cleanup worker.
// Publishing is best-effort; the row mutation that orphaned the image
// has already committed and must not be rolled back over cleanup.
type DeletionPublisher interface {
	PublishDeletions(ctx context.Context, urls ...string)
}

// PubSubDeletionPublisher publishes deletion requests to the image
// deletion topic.
type PubSubDeletionPublisher struct {
	publisher *pubsub.Publisher
	logg      *logger.Logger
}

func NewPubSubDeletionPublisher(publisher *pubsub.Publisher, logg *logger.Logger) (*PubSubDeletionPublisher, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &PubSubDeletionPublisher{publisher: publisher, logg: logg}, nil
}

// PublishDeletions enqueues the URLs for the cleanup worker. Failures
// are logged and swallowed.
func (p *PubSubDeletionPublisher) PublishDeletions(ctx context.Context, urls ...string) {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return
	}

	data, err := json.Marshal(DeletionRequest{URLs: cleaned})
	if err != nil {
		p.logg.Error(ctx, "marshaling image deletion request", err)
		return
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		p.logg.Error(p.logg.WithField(ctx, "urls", cleaned), "publishing image deletion request", err)
	}
}

// NoopDeletionPublisher discards requests. Used where no Pub/Sub
// connection is configured.
type NoopDeletionPublisher struct{}

func (NoopDeletionPublisher) PublishDeletions(context.Context, ...string) {}
