package pkg

import (
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/config"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// PubSub pairs the publisher and subscriber sides of one transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

func (p PubSub) Close() error {
	pubErr := p.Publisher.Close()
	subErr := p.Subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}

// NewChangeFeedPubSub builds the transport carrying record store change
// notifications. Kafka subscribers join no consumer group so every instance
// sees every change.
func NewChangeFeedPubSub(cfg config.ChangeFeedConfig, logger *slog.Logger) (PubSub, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch cfg.Driver {
	case "", "gochannel":
		goChannel := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		return PubSub{Publisher: goChannel, Subscriber: goChannel}, nil
	case "kafka":
		publisher, err := newKafkaPublisher(cfg.KafkaBrokers, wmLogger)
		if err != nil {
			return PubSub{}, fmt.Errorf("failed to create Kafka change feed publisher: %w", err)
		}

		subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               cfg.KafkaBrokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		}, wmLogger)
		if err != nil {
			publisher.Close()
			return PubSub{}, fmt.Errorf("failed to create Kafka change feed subscriber: %w", err)
		}
		return PubSub{Publisher: publisher, Subscriber: subscriber}, nil
	default:
		return PubSub{}, fmt.Errorf("unsupported change feed driver: %s", cfg.Driver)
	}
}

// NewEventPublisher builds the domain event publisher. Disabled or unknown
// publishers discard events.
func NewEventPublisher(cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if !cfg.Events.Enabled {
		logger.Info("Event publishing disabled")
		return events.NewDiscardPublisher(logger), nil
	}

	switch cfg.Events.Publisher {
	case "kafka":
		publisher, err := newKafkaPublisher(cfg.ChangeFeed.KafkaBrokers, watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka event publisher: %w", err)
		}
		logger.Info("Publishing events to Kafka", "brokers", cfg.ChangeFeed.KafkaBrokers, "topic", cfg.Events.Topic)
		return events.NewWatermillPublisher(publisher, cfg.Events.Topic, logger), nil
	case "discard":
		return events.NewDiscardPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher, discarding events", "publisher", cfg.Events.Publisher)
		return events.NewDiscardPublisher(logger), nil
	}
}

func newKafkaPublisher(brokers []string, logger watermill.LoggerAdapter) (*kafka.Publisher, error) {
	return kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
}
