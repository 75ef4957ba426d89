package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SaveJokeDelivered(ctx context.Context, event *JokeDeliveredEvent) error
	SaveVoteCast(ctx context.Context, event *VoteCastEvent) error
}
