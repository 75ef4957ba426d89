package analytics

import "time"

// Topics for the analytics event stream.
const (
	TopicJokeDelivered = "joke.delivered"
	TopicVoteCast      = "joke.vote"
)

// JokeDeliveredEvent is emitted after a joke has been delivered to a user.
type JokeDeliveredEvent struct {
	JokeID      string    `json:"jokeId"`
	UserID      string    `json:"userId"`
	Locale      string    `json:"locale"`
	Translated  bool      `json:"translated"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// VoteCastEvent is emitted after a community vote has been recorded.
type VoteCastEvent struct {
	JokeID    string    `json:"jokeId"`
	Direction string    `json:"direction"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	CastAt    time.Time `json:"castAt"`
}
