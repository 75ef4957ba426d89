package jokes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL points at the public joke provider.
const DefaultBaseURL = "https://official-joke-api.appspot.com"

// Joke is a two-part content item as returned by the provider.
type Joke struct {
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
}

// Provider fetches random jokes from an external source.
type Provider interface {
	Random(ctx context.Context) (Joke, error)
}

// Client is an HTTP implementation of Provider. Calls are bounded by the
// injected http.Client's timeout and retried once; there is no retry storm,
// a second failure surfaces to the user as a recoverable apology.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

// NewClient creates a joke provider client. httpc may be nil, in which case a
// client with a 5s timeout is used.
func NewClient(baseURL string, httpc *http.Client, logger *zap.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 5 * time.Second}
	}

	return &Client{
		baseURL: baseURL,
		httpc:   httpc,
		logger:  logger,
	}
}

// Random fetches one random joke.
func (c *Client) Random(ctx context.Context) (Joke, error) {
	joke, err := c.fetch(ctx)
	if err == nil {
		return joke, nil
	}

	c.logger.Warn("joke fetch failed, retrying once", zap.Error(err))

	joke, err = c.fetch(ctx)
	if err != nil {
		return Joke{}, fmt.Errorf("joke provider: %w", err)
	}

	return joke, nil
}

func (c *Client) fetch(ctx context.Context) (Joke, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/random_joke", nil)
	if err != nil {
		return Joke{}, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Joke{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Joke{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var joke Joke
	if err := json.NewDecoder(resp.Body).Decode(&joke); err != nil {
		return Joke{}, fmt.Errorf("decode joke: %w", err)
	}

	if joke.Setup == "" && joke.Punchline == "" {
		return Joke{}, fmt.Errorf("empty joke payload")
	}

	return joke, nil
}

// Compile-time check.
var _ Provider = (*Client)(nil)
