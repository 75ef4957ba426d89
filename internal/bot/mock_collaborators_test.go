package bot_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/joke-bot-go/internal/jokes"
	"github.com/serroba/joke-bot-go/internal/messaging"
	"github.com/serroba/joke-bot-go/internal/telegram"
)

var errMock = errors.New("mock error")

// mockMessenger records every outbound call for assertions.
type mockMessenger struct {
	mu      sync.Mutex
	sent    []telegram.SendMessageParams
	answers []string
	cleared []int64
	sendErr error
}

func (m *mockMessenger) SendMessage(_ context.Context, params telegram.SendMessageParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}

	m.sent = append(m.sent, params)

	return nil
}

func (m *mockMessenger) AnswerCallbackQuery(_ context.Context, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.answers = append(m.answers, text)

	return nil
}

func (m *mockMessenger) ClearReplyMarkup(_ context.Context, _ int64, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cleared = append(m.cleared, messageID)

	return nil
}

func (m *mockMessenger) lastSent() telegram.SendMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return telegram.SendMessageParams{}
	}

	return m.sent[len(m.sent)-1]
}

// mockProvider is a test double for the joke provider.
type mockProvider struct {
	joke jokes.Joke
	err  error
}

func (m *mockProvider) Random(_ context.Context) (jokes.Joke, error) {
	if m.err != nil {
		return jokes.Joke{}, m.err
	}

	return m.joke, nil
}

// mockTranslator prefixes translated text so tests can tell it ran.
type mockTranslator struct {
	err error
}

func (m *mockTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}

	return "[uk] " + text, nil
}

// noopPublish returns a publish function that always succeeds.
func noopPublish[T any]() messaging.Publish[T] {
	return func(_ *T) error { return nil }
}

// capturePublish returns a publish function that records events.
func capturePublish[T any](events *[]*T) messaging.Publish[T] {
	return func(event *T) error {
		*events = append(*events, event)

		return nil
	}
}
