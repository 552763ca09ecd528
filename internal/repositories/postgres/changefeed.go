package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ChangeFeed announces collection writes over a watermill transport so that
// subscriptions can re-run their queries.
type ChangeFeed struct {
	publisher   message.Publisher
	subscriber  message.Subscriber
	topicPrefix string
	logger      *slog.Logger
}

func NewChangeFeed(publisher message.Publisher, subscriber message.Subscriber, topicPrefix string, logger *slog.Logger) *ChangeFeed {
	return &ChangeFeed{
		publisher:   publisher,
		subscriber:  subscriber,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

func (f *ChangeFeed) topic(collection string) string {
	return f.topicPrefix + collection
}

// Notify publishes change on the collection's topic.
func (f *ChangeFeed) Notify(ctx context.Context, change repositories.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("op", string(change.Op))

	if err := f.publisher.Publish(f.topic(change.Collection), msg); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", change.Collection, err)
	}
	return nil
}

// Changes streams decoded changes of one collection until ctx is done.
func (f *ChangeFeed) Changes(ctx context.Context, collection string) (<-chan repositories.Change, error) {
	messages, err := f.subscriber.Subscribe(ctx, f.topic(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", collection, err)
	}

	out := make(chan repositories.Change)
	go func() {
		defer close(out)
		for msg := range messages {
			var change repositories.Change
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				f.logger.Warn("Dropping malformed change message", "collection", collection, "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
