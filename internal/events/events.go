// Package events publishes order lifecycle events and projects them into
// enrollments.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"course-market/internal/config"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Order event topics
const (
	TopicOrderConfirmed = "order.confirmed"
	TopicOrderCancelled = "order.cancelled"
)

// OrderEvent is emitted after an order changes state.
type OrderEvent struct {
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	CourseID   string    `json:"courseId"`
	Status     string    `json:"status"`
	ActorID    string    `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher publishes order events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event OrderEvent) error
}

// Bus carries order events over a watermill transport.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	prefix     string
	logger     zerolog.Logger
}

// New creates a bus for the configured driver.
func New(cfg config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	switch cfg.Driver {
	case config.EventsDriverKafka:
		return NewKafkaBus(cfg, logger)
	default:
		return NewGoChannelBus(cfg.TopicPrefix, logger), nil
	}
}

// NewGoChannelBus creates an in-process bus.
func NewGoChannelBus(prefix string, logger zerolog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, NewLoggerAdapter(logger))

	return newBus(pubSub, pubSub, prefix, logger)
}

// NewKafkaBus creates a bus on Kafka.
func NewKafkaBus(cfg config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	wmLogger := NewLoggerAdapter(logger)

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         cfg.ConsumerGroup,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return newBus(publisher, subscriber, cfg.TopicPrefix, logger), nil
}

func newBus(publisher message.Publisher, subscriber message.Subscriber, prefix string, logger zerolog.Logger) *Bus {
	return &Bus{
		publisher:  publisher,
		subscriber: subscriber,
		prefix:     prefix,
		logger:     logger.With().Str("component", "event-bus").Logger(),
	}
}

func (b *Bus) topic(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

// Publish sends event on topic.
func (b *Bus) Publish(ctx context.Context, topic string, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("order_id", event.OrderID)

	if err := b.publisher.Publish(b.topic(topic), msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}

	b.logger.Debug().Str("topic", topic).Str("order_id", event.OrderID).Msg("event published")
	return nil
}

// Subscribe returns the message stream of topic until ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := b.subscriber.Subscribe(ctx, b.topic(topic))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return messages, nil
}

// Close closes the publisher and the subscriber.
func (b *Bus) Close() error {
	pubErr := b.publisher.Close()
	if any(b.subscriber) == any(b.publisher) {
		return pubErr
	}
	subErr := b.subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
