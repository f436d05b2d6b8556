// Package events publishes interaction lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"relationship-notes-service/internal/observability/metrics"
)

// Publisher publishes interaction events to separate Kafka topics.
type Publisher struct {
	writerInteractions *kafka.Writer
	writerReminders    *kafka.Writer
	principal          string
	topicInteractions  string
	topicReminders     string
	enabled            bool
	metrics            *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers           []string
	TopicInteractions string
	TopicReminders    string
	Principal         string
	Enabled           bool
}

// New creates a Kafka publisher with separate topics for logged
// interactions and scheduled reminders. With Kafka disabled events are
// logged only.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:         cfg.Principal,
			topicInteractions: cfg.TopicInteractions,
			topicReminders:    cfg.TopicReminders,
			enabled:           false,
			metrics:           m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerInteractions := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicInteractions,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerReminders := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicReminders,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicInteractions", cfg.TopicInteractions).
		Str("topicReminders", cfg.TopicReminders).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerInteractions: writerInteractions,
		writerReminders:    writerReminders,
		principal:          cfg.Principal,
		topicInteractions:  cfg.TopicInteractions,
		topicReminders:     cfg.TopicReminders,
		enabled:            true,
		metrics:            m,
	}
}

// PublishInteractionLogged publishes an interaction-created event keyed by
// contact ID.
func (p *Publisher) PublishInteractionLogged(ctx context.Context, contactID string, event any) error {
	return p.publish(ctx, p.writerInteractions, p.topicInteractions, "interaction.logged", contactID, event)
}

// PublishReminderScheduled publishes a reminder-scheduled event keyed by
// contact ID.
func (p *Publisher) PublishReminderScheduled(ctx context.Context, contactID string, event any) error {
	return p.publish(ctx, p.writerReminders, p.topicReminders, "interaction.reminder.scheduled", contactID, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerInteractions != nil {
		if e := p.writerInteractions.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing interactions writer")
			err = e
		}
	}
	if p.writerReminders != nil {
		if e := p.writerReminders.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing reminders writer")
			err = e
		}
	}
	return err
}
