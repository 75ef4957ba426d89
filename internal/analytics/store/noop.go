package store

import (
	"context"

	"github.com/serroba/joke-bot-go/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveJokeDelivered(_ context.Context, event *analytics.JokeDeliveredEvent) error {
	n.logger.Info("joke delivered event received",
		zap.String("jokeId", event.JokeID),
		zap.String("userId", event.UserID),
		zap.String("locale", event.Locale),
		zap.Bool("translated", event.Translated),
		zap.Time("deliveredAt", event.DeliveredAt),
	)

	return nil
}

func (n *Noop) SaveVoteCast(_ context.Context, event *analytics.VoteCastEvent) error {
	n.logger.Info("vote cast event received",
		zap.String("jokeId", event.JokeID),
		zap.String("direction", event.Direction),
		zap.Int("likes", event.Likes),
		zap.Int("dislikes", event.Dislikes),
		zap.Time("castAt", event.CastAt),
	)

	return nil
}
