package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/joke-bot-go/internal/messaging"
	"go.uber.org/zap"
)

// Consumer persists the analytics event stream, one typed consumer per
// topic.
type Consumer struct {
	delivered *messaging.Consumer[JokeDeliveredEvent]
	votes     *messaging.Consumer[VoteCastEvent]
}

// NewConsumer creates a consumer feeding both event topics into the store.
func NewConsumer(subscriber message.Subscriber, store Store, logger *zap.Logger) *Consumer {
	return &Consumer{
		delivered: messaging.NewConsumer(subscriber, TopicJokeDelivered, store.SaveJokeDelivered, logger),
		votes:     messaging.NewConsumer(subscriber, TopicVoteCast, store.SaveVoteCast, logger),
	}
}

// Start begins consuming both topics.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.delivered.Start(ctx); err != nil {
		return err
	}

	if err := c.votes.Start(ctx); err != nil {
		_ = c.delivered.Shutdown()

		return err
	}

	return nil
}

// Shutdown stops both consumers and waits for in-flight messages to
// complete.
func (c *Consumer) Shutdown() error {
	if err := c.delivered.Shutdown(); err != nil {
		return err
	}

	return c.votes.Shutdown()
}
