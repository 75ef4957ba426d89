package handlers

import "github.com/serroba/joke-bot-go/internal/telegram"

// WebhookRequest is an inbound Telegram webhook delivery. The token path
// segment is the shared secret Telegram was configured with.
type WebhookRequest struct {
	Token string         `doc:"Webhook secret token" path:"token"`
	Body  telegram.Update
}

// WebhookResponse acknowledges a webhook delivery. Telegram only needs a
// prompt 200; processing outcomes are never surfaced here.
type WebhookResponse struct{}

// TopJokesRequest asks for the current community ranking.
type TopJokesRequest struct {
	Limit int `default:"10" doc:"Maximum number of jokes to return" maximum:"100" minimum:"1" query:"limit"`
}

// RankedJokeEntry is one entry of the community ranking.
type RankedJokeEntry struct {
	ID        string `doc:"Joke identifier"     example:"483920" json:"id"`
	Setup     string `doc:"Joke setup"          json:"setup"`
	Punchline string `doc:"Joke punchline"      json:"punchline"`
	Likes     int    `doc:"Community likes"     json:"likes"`
	Dislikes  int    `doc:"Community dislikes"  json:"dislikes"`
}

// TopJokesResponse is the response for the ranking endpoint.
type TopJokesResponse struct {
	Body struct {
		Jokes []RankedJokeEntry `json:"jokes"`
	}
}
