package event

import (
	"context"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"payguard/internal/metrics"
)

// Handler processes one raw message from the stream. It must never panic;
// undecodable payloads are its problem to skip.
type Handler func(ctx context.Context, topic string, data []byte)

// Consumer is a long-lived consumer-group loop feeding a Handler. Each
// consumer owns its own group id so independent readers (audit recorder,
// fraud broadcaster) keep independent offsets.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler Handler
}

func NewConsumer(brokers []string, groupID string, topics []string, fromOldest bool, handler Handler) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	if fromOldest {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		config.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group %s: %w", groupID, err)
	}

	return &Consumer{group: group, topics: topics, handler: handler}, nil
}

// Start blocks until ctx is cancelled, rejoining the group after rebalances.
func (c *Consumer) Start(ctx context.Context) error {
	h := &groupHandler{handler: c.handler}

	for {
		if err := c.group.Consume(ctx, c.topics, h); err != nil {
			log.Printf("[Consumer] error consuming messages: %v", err)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler Handler
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		metrics.EventsConsumed.WithLabelValues(message.Topic).Inc()
		h.handler(session.Context(), message.Topic, message.Value)
		session.MarkMessage(message, "")
	}
	return nil
}
