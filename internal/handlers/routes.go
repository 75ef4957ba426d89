package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the bot's HTTP surface.
func RegisterRoutes(api huma.API, webhook *WebhookHandler, top *TopJokesHandler) {
	// POST /webhook/{token} - inbound Telegram updates.
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/webhook/{token}",
		Summary:     "Receive Telegram update",
		Description: "Accepts one webhook delivery from Telegram and acknowledges it promptly.",
		Tags:        []string{"Webhook"},
	}, webhook.Receive)

	// GET /jokes/top - community ranking.
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/jokes/top",
		Summary:     "Top rated jokes",
		Description: "Returns delivered jokes ordered by community likes.",
		Tags:        []string{"Jokes"},
	}, top.List)
}
