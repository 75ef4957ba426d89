package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIURL is the production Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// SendMessageParams are the fields of a sendMessage call this bot uses.
type SendMessageParams struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// Client sends messages through the Telegram Bot API. Each call is bounded by
// the injected http.Client's timeout and retried once on failure.
type Client struct {
	apiURL string
	token  string
	httpc  *http.Client
	logger *zap.Logger
}

// NewClient creates a Bot API client. httpc may be nil, in which case a
// client with a 10s timeout is used.
func NewClient(apiURL, token string, httpc *http.Client, logger *zap.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		apiURL: apiURL,
		token:  token,
		httpc:  httpc,
		logger: logger,
	}
}

// SendMessage sends a plain or keyboard-equipped message to a chat.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) error {
	return c.call(ctx, "sendMessage", params)
}

// AnswerCallbackQuery acknowledges an inline-button press with an optional
// toast text.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]string{
		"callback_query_id": callbackID,
		"text":              text,
	})
}

// ClearReplyMarkup removes the inline keyboard from a previously sent
// message, so a joke cannot collect further votes through that message.
func (c *Client) ClearReplyMarkup(ctx context.Context, chatID, messageID int64) error {
	return c.call(ctx, "editMessageReplyMarkup", map[string]int64{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, params any) error {
	err := c.post(ctx, method, params)
	if err == nil {
		return nil
	}

	c.logger.Warn("telegram call failed, retrying once",
		zap.String("method", method),
		zap.Error(err),
	)

	if err := c.post(ctx, method, params); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, method string, params any) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("api error: %s", result.Description)
	}

	return nil
}
