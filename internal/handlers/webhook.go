package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/joke-bot-go/internal/telegram"
	"go.uber.org/zap"
)

// Dispatcher routes one inbound update. bot.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, upd *telegram.Update) error
}

// WebhookHandler accepts Telegram webhook deliveries.
type WebhookHandler struct {
	token      string
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewWebhookHandler creates a webhook handler bound to the configured secret
// token.
func NewWebhookHandler(token string, dispatcher Dispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		token:      token,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Receive handles one webhook delivery. Telegram retries on anything but a
// prompt success status, so processing failures are logged and swallowed:
// at-least-once redelivery of a failed update must not wedge the webhook.
func (h *WebhookHandler) Receive(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error) {
	if subtle.ConstantTimeCompare([]byte(req.Token), []byte(h.token)) != 1 {
		return nil, huma.Error404NotFound("not found")
	}

	if err := h.dispatcher.Dispatch(ctx, &req.Body); err != nil {
		h.logger.Error("update processing failed",
			zap.Int64("updateId", req.Body.UpdateID),
			zap.Error(err),
		)
	}

	return &WebhookResponse{}, nil
}
