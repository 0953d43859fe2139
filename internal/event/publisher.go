package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"

	"payguard/internal/metrics"
)

// Publisher pushes domain events onto the audit stream. Publication is
// fire-and-forget: a transport failure is logged and the event is lost.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev *Event) error
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 0
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, ev *Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(ev.UserID),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		metrics.EventsDropped.WithLabelValues(topic).Inc()
		log.Printf("[Publisher] Kafka error on topic %s: %v", topic, err)
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}
