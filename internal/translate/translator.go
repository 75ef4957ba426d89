package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Translator converts text between languages. Failures are recoverable: the
// caller degrades to the untranslated text rather than failing the delivery.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// HTTPTranslator talks to a LibreTranslate-compatible endpoint.
type HTTPTranslator struct {
	url    string
	httpc  *http.Client
	logger *zap.Logger
}

// NewHTTPTranslator creates a translator client. httpc may be nil, in which
// case a client with a 5s timeout is used.
func NewHTTPTranslator(url string, httpc *http.Client, logger *zap.Logger) *HTTPTranslator {
	if httpc == nil {
		httpc = &http.Client{Timeout: 5 * time.Second}
	}

	return &HTTPTranslator{
		url:    url,
		httpc:  httpc,
		logger: logger,
	}
}

type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate converts text from sourceLang to targetLang, retrying once.
func (t *HTTPTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	translated, err := t.call(ctx, text, sourceLang, targetLang)
	if err == nil {
		return translated, nil
	}

	t.logger.Warn("translation failed, retrying once", zap.Error(err))

	translated, err = t.call(ctx, text, sourceLang, targetLang)
	if err != nil {
		return "", fmt.Errorf("translator: %w", err)
	}

	return translated, nil
}

func (t *HTTPTranslator) call(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(translateRequest{
		Query:  text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}

	return result.TranslatedText, nil
}

// Noop passes text through untranslated, for deployments without a
// translation backend and for tests.
type Noop struct{}

// NewNoop creates a pass-through translator.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// Compile-time checks.
var (
	_ Translator = (*HTTPTranslator)(nil)
	_ Translator = (*Noop)(nil)
)
