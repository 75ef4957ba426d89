package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/joke-bot-go/internal/ratings"
)

// TopJokesHandler serves the community ranking over plain HTTP, for
// dashboards and curious humans.
type TopJokesHandler struct {
	ledger *ratings.Ledger
}

// NewTopJokesHandler creates a ranking handler.
func NewTopJokesHandler(ledger *ratings.Ledger) *TopJokesHandler {
	return &TopJokesHandler{ledger: ledger}
}

// List returns up to limit jokes ordered by community score.
func (h *TopJokesHandler) List(ctx context.Context, req *TopJokesRequest) (*TopJokesResponse, error) {
	ranked, err := h.ledger.TopN(ctx, req.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to rank jokes")
	}

	resp := &TopJokesResponse{}
	resp.Body.Jokes = make([]RankedJokeEntry, 0, len(ranked))

	for _, joke := range ranked {
		resp.Body.Jokes = append(resp.Body.Jokes, RankedJokeEntry{
			ID:        joke.ID,
			Setup:     joke.Setup,
			Punchline: joke.Punchline,
			Likes:     joke.Likes,
			Dislikes:  joke.Dislikes,
		})
	}

	return resp, nil
}
