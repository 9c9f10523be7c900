package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/umanagarjuna/linkshort/internal/url/domain"
)

const (
	TopicURLCreated = "url.created"
	TopicURLClicked = "url.clicked"
)

type EventPublisher struct {
	producer sarama.SyncProducer
}

func NewEventPublisher(brokers []string) (*EventPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return NewEventPublisherWithProducer(producer), nil
}

func NewEventPublisherWithProducer(producer sarama.SyncProducer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) PublishURLCreated(ctx context.Context, url *domain.URL) error {
	event := map[string]interface{}{
		"event_type": "url_created",
		"timestamp":  url.CreatedAt,
		"data": map[string]interface{}{
			"short_code": url.ShortCode,
			"long_url":   url.LongURL,
			"expires_at": url.ExpiresAt,
		},
	}

	return p.publish(ctx, TopicURLCreated, url.ShortCode, event)
}

func (p *EventPublisher) PublishURLClicked(ctx context.Context, event *domain.ClickEvent) error {
	kafkaEvent := map[string]interface{}{
		"event_type": "url_clicked",
		"timestamp":  event.Timestamp,
		"data": map[string]interface{}{
			"short_code": event.ShortCode,
			"user_agent": event.UserAgent,
			"ip_address": event.IP,
			"referrer":   event.Referrer,
		},
	}

	return p.publish(ctx, TopicURLClicked, event.ShortCode, kafkaEvent)
}

func (p *EventPublisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", topic, err)
	}

	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishURLCreated(context.Context, *domain.URL) error        { return nil }
func (NoopPublisher) PublishURLClicked(context.Context, *domain.ClickEvent) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }
