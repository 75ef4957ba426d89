package bot_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/serroba/joke-bot-go/internal/analytics"
	"github.com/serroba/joke-bot-go/internal/bot"
	"github.com/serroba/joke-bot-go/internal/jokes"
	"github.com/serroba/joke-bot-go/internal/quota"
	"github.com/serroba/joke-bot-go/internal/ratings"
	"github.com/serroba/joke-bot-go/internal/store"
	"github.com/serroba/joke-bot-go/internal/telegram"
)

type fixture struct {
	dispatcher *bot.Dispatcher
	messenger  *mockMessenger
	provider   *mockProvider
	tracker    *quota.Tracker
	delivered  []*analytics.JokeDeliveredEvent
	votes      []*analytics.VoteCastEvent
}

func newFixture(t *testing.T, opts ...quota.Option) *fixture {
	t.Helper()

	backend := store.NewMemoryStore()
	logger := zap.NewNop()

	users := store.NewCollection[quota.UserRecord](backend, store.SetUsers, logger)
	jokesCol := store.NewCollection[ratings.JokeRecord](backend, store.SetJokes, logger)

	next := 0
	generate := func() string {
		next++

		return fmt.Sprintf("%06d", next)
	}

	f := &fixture{
		messenger: &mockMessenger{},
		provider: &mockProvider{
			joke: jokes.Joke{Setup: "Why did the chicken cross the road?", Punchline: "To get to the other side."},
		},
		tracker: quota.NewTracker(users, logger, opts...),
	}

	ledger := ratings.NewLedger(jokesCol, generate, generate, logger)

	f.dispatcher = bot.NewDispatcher(
		f.tracker,
		ledger,
		f.provider,
		&mockTranslator{},
		f.messenger,
		capturePublish(&f.delivered),
		capturePublish(&f.votes),
		logger,
	)

	return f
}

func message(chatID int64, text string) *telegram.Update {
	return &telegram.Update{Message: &telegram.Message{Chat: telegram.Chat{ID: chatID}, Text: text}}
}

func callback(userID, chatID, messageID int64, data string) *telegram.Update {
	return &telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:      "cb-1",
		From:    telegram.User{ID: userID},
		Message: &telegram.Message{MessageID: messageID, Chat: telegram.Chat{ID: chatID}},
		Data:    data,
	}}
}

func TestDispatcher_Joke(t *testing.T) {
	t.Run("delivers a translated joke with a voting keyboard", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), message(7, "/joke"))
		require.NoError(t, err)

		require.Len(t, f.messenger.sent, 1)

		sent := f.messenger.lastSent()
		assert.Equal(t, int64(7), sent.ChatID)
		assert.Contains(t, sent.Text, "[uk] Why did the chicken cross the road?")
		assert.Contains(t, sent.Text, "[uk] To get to the other side.")

		require.NotNil(t, sent.ReplyMarkup)
		require.Len(t, sent.ReplyMarkup.InlineKeyboard, 1)
		require.Len(t, sent.ReplyMarkup.InlineKeyboard[0], 2)
		assert.Equal(t, "like_000001", sent.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "dislike_000001", sent.ReplyMarkup.InlineKeyboard[0][1].CallbackData)

		require.Len(t, f.delivered, 1)
		assert.Equal(t, "000001", f.delivered[0].JokeID)
		assert.Equal(t, "7", f.delivered[0].UserID)
		assert.True(t, f.delivered[0].Translated)
	})

	t.Run("delivers the original text for english users", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		require.NoError(t, f.dispatcher.Dispatch(ctx, callback(7, 7, 1, "lang_en")))
		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, "Why did the chicken cross the road?")
		assert.NotContains(t, sent.Text, "[uk]")

		require.Len(t, f.delivered, 1)
		assert.False(t, f.delivered[0].Translated)
	})

	t.Run("consumes one quota slot per delivery", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))

		remaining, err := f.tracker.Remaining(ctx, "7", quota.CategoryJokes)
		require.NoError(t, err)
		assert.Equal(t, quota.DefaultDailyLimit-1, remaining)
	})

	t.Run("denies once the daily limit is exhausted", func(t *testing.T) {
		f := newFixture(t, quota.WithDailyLimit(2))
		ctx := context.Background()

		for range 2 {
			require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))
		}

		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, "ліміту жартів")
		assert.Nil(t, sent.ReplyMarkup)

		assert.Len(t, f.delivered, 2)
	})

	t.Run("releases the quota slot when the provider fails", func(t *testing.T) {
		f := newFixture(t)
		f.provider.err = errMock
		ctx := context.Background()

		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, "Не вдалося отримати жарт")

		remaining, err := f.tracker.Remaining(ctx, "7", quota.CategoryJokes)
		require.NoError(t, err)
		assert.Equal(t, quota.DefaultDailyLimit, remaining)

		assert.Empty(t, f.delivered)
	})

	t.Run("releases the quota slot when sending fails", func(t *testing.T) {
		f := newFixture(t)
		f.messenger.sendErr = errMock
		ctx := context.Background()

		err := f.dispatcher.Dispatch(ctx, message(7, "/joke"))
		require.Error(t, err)

		remaining, err := f.tracker.Remaining(ctx, "7", quota.CategoryJokes)
		require.NoError(t, err)
		assert.Equal(t, quota.DefaultDailyLimit, remaining)
	})
}

func TestDispatcher_Votes(t *testing.T) {
	deliverJoke := func(t *testing.T, f *fixture) string {
		t.Helper()

		require.NoError(t, f.dispatcher.Dispatch(context.Background(), message(7, "/joke")))
		require.Len(t, f.delivered, 1)

		return f.delivered[0].JokeID
	}

	t.Run("records a like and reports the tally", func(t *testing.T) {
		f := newFixture(t)
		jokeID := deliverJoke(t, f)

		err := f.dispatcher.Dispatch(context.Background(), callback(7, 7, 42, "like_"+jokeID))
		require.NoError(t, err)

		require.Len(t, f.messenger.answers, 1)
		assert.Equal(t, "Оцінка врахована!", f.messenger.answers[0])

		assert.Equal(t, []int64{42}, f.messenger.cleared)

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, "👍 1 | 👎 0")

		require.Len(t, f.votes, 1)
		assert.Equal(t, jokeID, f.votes[0].JokeID)
		assert.Equal(t, "like", f.votes[0].Direction)
		assert.Equal(t, 1, f.votes[0].Likes)
	})

	t.Run("records a dislike", func(t *testing.T) {
		f := newFixture(t)
		jokeID := deliverJoke(t, f)

		err := f.dispatcher.Dispatch(context.Background(), callback(7, 7, 42, "dislike_"+jokeID))
		require.NoError(t, err)

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, "👍 0 | 👎 1")

		require.Len(t, f.votes, 1)
		assert.Equal(t, "dislike", f.votes[0].Direction)
	})

	t.Run("answers softly when the joke is gone", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), callback(7, 7, 42, "like_999999"))
		require.NoError(t, err)

		require.Len(t, f.messenger.answers, 1)
		assert.Equal(t, "Цей жарт уже недоступний.", f.messenger.answers[0])

		assert.Empty(t, f.messenger.cleared)
		assert.Empty(t, f.votes)
	})

	t.Run("ignores unknown callback tokens", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), callback(7, 7, 42, "bogus_token"))
		require.NoError(t, err)

		assert.Empty(t, f.messenger.sent)
		assert.Empty(t, f.votes)
	})

	t.Run("answers callbacks without a source message", func(t *testing.T) {
		f := newFixture(t)

		upd := &telegram.Update{CallbackQuery: &telegram.CallbackQuery{
			ID:   "cb-1",
			From: telegram.User{ID: 7},
			Data: "like_000001",
		}}

		err := f.dispatcher.Dispatch(context.Background(), upd)
		require.NoError(t, err)

		assert.Empty(t, f.messenger.sent)
		require.Len(t, f.messenger.answers, 1)
	})
}

func TestDispatcher_Locale(t *testing.T) {
	t.Run("switches to english and confirms in english", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		err := f.dispatcher.Dispatch(ctx, callback(7, 7, 1, "lang_en"))
		require.NoError(t, err)

		assert.Equal(t, []string{"Language changed!"}, f.messenger.answers)
		assert.Equal(t, "Language changed!", f.messenger.lastSent().Text)

		record, err := f.tracker.Resolve(ctx, "7")
		require.NoError(t, err)
		assert.Equal(t, quota.LocaleEN, record.Locale)
	})

	t.Run("switches back to ukrainian", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		require.NoError(t, f.dispatcher.Dispatch(ctx, callback(7, 7, 1, "lang_en")))
		require.NoError(t, f.dispatcher.Dispatch(ctx, callback(7, 7, 1, "lang_uk")))

		assert.Equal(t, "Мову змінено!", f.messenger.lastSent().Text)

		record, err := f.tracker.Resolve(ctx, "7")
		require.NoError(t, err)
		assert.Equal(t, quota.LocaleUK, record.Locale)
	})
}

func TestDispatcher_Commands(t *testing.T) {
	t.Run("start sends the language keyboard and help", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), message(7, "/start"))
		require.NoError(t, err)

		require.Len(t, f.messenger.sent, 2)

		first := f.messenger.sent[0]
		require.NotNil(t, first.ReplyMarkup)
		assert.Equal(t, "lang_uk", first.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "lang_en", first.ReplyMarkup.InlineKeyboard[0][1].CallbackData)

		assert.Contains(t, f.messenger.sent[1].Text, "/joke")
	})

	t.Run("check reports the remaining allowance", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))

		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/check")))

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, fmt.Sprintf("%d/%d", quota.DefaultDailyLimit-1, quota.DefaultDailyLimit))
	})

	t.Run("top jokes reports when nothing is rated", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), message(7, "/top_jokes"))
		require.NoError(t, err)

		assert.Contains(t, f.messenger.lastSent().Text, "немає оцінених жартів")
	})

	t.Run("top jokes ranks by likes", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))
		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/joke")))
		require.Len(t, f.delivered, 2)

		second := f.delivered[1].JokeID
		for range 3 {
			require.NoError(t, f.dispatcher.Dispatch(ctx, callback(7, 7, 1, "like_"+second)))
		}

		require.NoError(t, f.dispatcher.Dispatch(ctx, message(7, "/top_jokes")))

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, "Топ 2 жартів")

		lines := strings.Split(sent.Text, "\n")
		assert.Contains(t, lines[1], "👍 3")
	})

	t.Run("unknown commands answer with help", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), message(7, "hello there"))
		require.NoError(t, err)

		assert.Contains(t, f.messenger.lastSent().Text, "/joke - Отримати жарт")
	})

	t.Run("command arguments are ignored", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), message(7, "/joke please"))
		require.NoError(t, err)

		require.Len(t, f.delivered, 1)
	})

	t.Run("updates without message or callback are ignored", func(t *testing.T) {
		f := newFixture(t)

		err := f.dispatcher.Dispatch(context.Background(), &telegram.Update{UpdateID: 1})
		require.NoError(t, err)

		assert.Empty(t, f.messenger.sent)
	})
}

func TestDispatcher_TranslationDegrades(t *testing.T) {
	t.Run("delivers the original text when translation fails", func(t *testing.T) {
		f := newFixture(t)

		backend := store.NewMemoryStore()
		logger := zap.NewNop()
		users := store.NewCollection[quota.UserRecord](backend, store.SetUsers, logger)
		jokesCol := store.NewCollection[ratings.JokeRecord](backend, store.SetJokes, logger)

		generate := func() string { return "000001" }

		f.dispatcher = bot.NewDispatcher(
			quota.NewTracker(users, logger),
			ratings.NewLedger(jokesCol, generate, generate, logger),
			f.provider,
			&mockTranslator{err: errMock},
			f.messenger,
			capturePublish(&f.delivered),
			capturePublish(&f.votes),
			logger,
		)

		err := f.dispatcher.Dispatch(context.Background(), message(7, "/joke"))
		require.NoError(t, err)

		sent := f.messenger.lastSent()
		assert.Contains(t, sent.Text, "Why did the chicken cross the road?")
		assert.NotContains(t, sent.Text, "[uk]")

		require.Len(t, f.delivered, 1)
		assert.False(t, f.delivered[0].Translated)
	})
}
