package consumer

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/bagaspradana/tokoadmin-backend/internal/media"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/storage/gcs"
)

type objectDeleter interface {
	DeleteByURL(ctx context.Context, publicURL string) error
}

// DeletionConsumer drains the image deletion topic and removes the
// referenced objects from storage.
type DeletionConsumer struct {
	deleter      objectDeleter
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

func NewDeletionConsumer(deleter objectDeleter, subscription *pubsub.Subscriber, logg *logger.Logger) (*DeletionConsumer, error) {
	if deleter == nil {
		return nil, errors.New("object deleter is required")
	}
	if subscription == nil {
		return nil, errors.New("image deletion subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &DeletionConsumer{
		deleter:      deleter,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes deletion requests until the context is canceled.
func (c *DeletionConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *DeletionConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	var req media.DeletionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		c.logg.Error(logCtx, "failed to decode deletion request", err)
		return processResult{ack: true}
	}
	if len(req.URLs) == 0 {
		c.logg.Warn(logCtx, "deletion request without urls")
		return processResult{ack: true}
	}

	for _, url := range req.URLs {
		urlCtx := c.logg.WithField(logCtx, "url", url)
		err := c.deleter.DeleteByURL(urlCtx, url)
		switch {
		case err == nil:
			c.logg.Info(urlCtx, "deleted orphaned image")
		case errors.Is(err, gcs.ErrObjectNotFound):
			// already gone, nothing to retry
			c.logg.Info(urlCtx, "image already deleted")
		case errors.Is(err, gcs.ErrInvalidObjectURL):
			// redelivery can never fix a bad URL
			c.logg.Error(urlCtx, "dropping unresolvable image url", err)
		default:
			c.logg.Error(urlCtx, "failed to delete image", err)
			return processResult{nack: true}
		}
	}

	return processResult{ack: true}
}
