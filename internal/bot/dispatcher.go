package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/serroba/joke-bot-go/internal/analytics"
	"github.com/serroba/joke-bot-go/internal/jokes"
	"github.com/serroba/joke-bot-go/internal/messaging"
	"github.com/serroba/joke-bot-go/internal/quota"
	"github.com/serroba/joke-bot-go/internal/ratings"
	"github.com/serroba/joke-bot-go/internal/telegram"
	"github.com/serroba/joke-bot-go/internal/translate"
	"go.uber.org/zap"
)

// Messenger is the outbound surface of the messaging platform the dispatcher
// needs. telegram.Client implements it.
type Messenger interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	ClearReplyMarkup(ctx context.Context, chatID, messageID int64) error
}

// Callback tokens encoded into inline buttons. Locale selection is a closed
// enumeration, not free-text label matching.
const (
	callbackLangUK = "lang_uk"
	callbackLangEN = "lang_en"

	likePrefix    = "like_"
	dislikePrefix = "dislike_"
)

const topJokesCount = 10

// Dispatcher resolves inbound events to user and content identities and
// orchestrates quota, ledger and the external collaborators. No inbound event
// may crash the handler: every failure is converted into a localized message
// or a logged no-op, so one corrupt event cannot affect other users'
// concurrent sessions.
type Dispatcher struct {
	quota      *quota.Tracker
	ledger     *ratings.Ledger
	provider   jokes.Provider
	translator translate.Translator
	messenger  Messenger

	publishDelivered messaging.Publish[analytics.JokeDeliveredEvent]
	publishVote      messaging.Publish[analytics.VoteCastEvent]

	now    func() time.Time
	logger *zap.Logger
}

// NewDispatcher creates a request dispatcher with injected collaborators.
func NewDispatcher(
	tracker *quota.Tracker,
	ledger *ratings.Ledger,
	provider jokes.Provider,
	translator translate.Translator,
	messenger Messenger,
	publishDelivered messaging.Publish[analytics.JokeDeliveredEvent],
	publishVote messaging.Publish[analytics.VoteCastEvent],
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		quota:            tracker,
		ledger:           ledger,
		provider:         provider,
		translator:       translator,
		messenger:        messenger,
		publishDelivered: publishDelivered,
		publishVote:      publishVote,
		now:              time.Now,
		logger:           logger,
	}
}

// Dispatch handles one inbound update. The returned error is for logging
// only; by the time Dispatch returns, the user has been answered (or the
// event was deliberately ignored).
func (d *Dispatcher) Dispatch(ctx context.Context, upd *telegram.Update) error {
	switch {
	case upd.CallbackQuery != nil:
		return d.dispatchCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		return d.dispatchMessage(ctx, upd.Message)
	default:
		// Update kinds this bot does not handle (edits, channel posts, ...).
		return nil
	}
}

func (d *Dispatcher) dispatchMessage(ctx context.Context, msg *telegram.Message) error {
	userID := strconv.FormatInt(msg.Chat.ID, 10)

	command := msg.Text
	if idx := strings.Index(command, " "); idx != -1 {
		command = command[:idx]
	}

	switch command {
	case "/start":
		return d.handleStart(ctx, msg.Chat.ID, userID)
	case "/joke":
		return d.handleJoke(ctx, msg.Chat.ID, userID)
	case "/check":
		return d.handleCheck(ctx, msg.Chat.ID, userID)
	case "/top_jokes":
		return d.handleTopJokes(ctx, msg.Chat.ID, userID)
	default:
		return d.handleHelp(ctx, msg.Chat.ID, userID)
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, chatID int64, userID string) error {
	if _, err := d.quota.Resolve(ctx, userID); err != nil {
		return d.apologize(ctx, chatID, quota.LocaleUK, err)
	}

	keyboard := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "Українська", CallbackData: callbackLangUK},
			{Text: "English", CallbackData: callbackLangEN},
		}},
	}

	if err := d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        msgChooseLanguage(),
		ReplyMarkup: keyboard,
	}); err != nil {
		return err
	}

	return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text:   msgHelp(quota.LocaleUK),
	})
}

func (d *Dispatcher) handleJoke(ctx context.Context, chatID int64, userID string) error {
	record, err := d.quota.Resolve(ctx, userID)
	if err != nil {
		return d.apologize(ctx, chatID, quota.LocaleUK, err)
	}

	locale := record.Locale

	result, err := d.quota.TryConsume(ctx, userID, quota.CategoryJokes)
	if err != nil {
		return d.apologize(ctx, chatID, locale, err)
	}

	if result == quota.Denied {
		return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: chatID,
			Text:   msgLimitReached(locale),
		})
	}

	// A reserved slot is only kept when the joke actually reaches the user;
	// any failure on the way hands it back.
	joke, err := d.provider.Random(ctx)
	if err != nil {
		d.releaseSlot(ctx, userID)

		d.logger.Warn("joke provider failed",
			zap.String("user", userID),
			zap.Error(err),
		)

		return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: chatID,
			Text:   msgProviderFailure(locale),
		})
	}

	setup, punchline, translated := d.localize(ctx, locale, joke)

	jokeID, err := d.ledger.Insert(ctx, setup, punchline)
	if err != nil {
		d.releaseSlot(ctx, userID)

		return d.apologize(ctx, chatID, locale, err)
	}

	keyboard := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "👍", CallbackData: likePrefix + jokeID},
			{Text: "👎", CallbackData: dislikePrefix + jokeID},
		}},
	}

	if err := d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        msgJoke(locale, setup, punchline),
		ParseMode:   "Markdown",
		ReplyMarkup: keyboard,
	}); err != nil {
		d.releaseSlot(ctx, userID)

		return err
	}

	event := &analytics.JokeDeliveredEvent{
		JokeID:      jokeID,
		UserID:      userID,
		Locale:      string(locale),
		Translated:  translated,
		DeliveredAt: d.now(),
	}

	if err := d.publishDelivered(event); err != nil {
		d.logger.Error("failed to publish delivery event",
			zap.String("jokeId", jokeID),
			zap.Error(err),
		)
	}

	return nil
}

// localize translates the joke into the user's language when it differs from
// the provider's. Translation failure degrades to the original text.
func (d *Dispatcher) localize(ctx context.Context, locale quota.Locale, joke jokes.Joke) (setup, punchline string, translated bool) {
	setup, punchline = joke.Setup, joke.Punchline

	if locale == quota.LocaleEN {
		return setup, punchline, false
	}

	translatedSetup, err := d.translator.Translate(ctx, joke.Setup, string(quota.LocaleEN), string(locale))
	if err != nil {
		d.logger.Warn("translation failed, delivering original", zap.Error(err))

		return setup, punchline, false
	}

	translatedPunchline, err := d.translator.Translate(ctx, joke.Punchline, string(quota.LocaleEN), string(locale))
	if err != nil {
		d.logger.Warn("translation failed, delivering original", zap.Error(err))

		return setup, punchline, false
	}

	return translatedSetup, translatedPunchline, true
}

func (d *Dispatcher) handleCheck(ctx context.Context, chatID int64, userID string) error {
	record, err := d.quota.Resolve(ctx, userID)
	if err != nil {
		return d.apologize(ctx, chatID, quota.LocaleUK, err)
	}

	remaining, err := d.quota.Remaining(ctx, userID, quota.CategoryJokes)
	if err != nil {
		return d.apologize(ctx, chatID, record.Locale, err)
	}

	return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      msgRemaining(record.Locale, remaining, d.quota.DailyLimit()),
		ParseMode: "Markdown",
	})
}

func (d *Dispatcher) handleTopJokes(ctx context.Context, chatID int64, userID string) error {
	record, err := d.quota.Resolve(ctx, userID)
	if err != nil {
		return d.apologize(ctx, chatID, quota.LocaleUK, err)
	}

	ranked, err := d.ledger.TopN(ctx, topJokesCount)
	if err != nil {
		return d.apologize(ctx, chatID, record.Locale, err)
	}

	if len(ranked) == 0 {
		return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: chatID,
			Text:   msgNoRatedJokes(record.Locale),
		})
	}

	return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      msgTopJokes(record.Locale, ranked),
		ParseMode: "Markdown",
	})
}

func (d *Dispatcher) handleHelp(ctx context.Context, chatID int64, userID string) error {
	record, err := d.quota.Resolve(ctx, userID)
	if err != nil {
		return d.apologize(ctx, chatID, quota.LocaleUK, err)
	}

	return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text:   msgHelp(record.Locale),
	})
}

func (d *Dispatcher) dispatchCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	if cb.Message == nil {
		// Callbacks from messages too old for Telegram to reference; nothing
		// to act on.
		return d.messenger.AnswerCallbackQuery(ctx, cb.ID, "")
	}

	chatID := cb.Message.Chat.ID
	userID := strconv.FormatInt(cb.From.ID, 10)

	switch {
	case cb.Data == callbackLangUK:
		return d.handleSetLocale(ctx, cb, chatID, userID, quota.LocaleUK)
	case cb.Data == callbackLangEN:
		return d.handleSetLocale(ctx, cb, chatID, userID, quota.LocaleEN)
	case strings.HasPrefix(cb.Data, likePrefix):
		return d.handleVote(ctx, cb, chatID, userID, strings.TrimPrefix(cb.Data, likePrefix), ratings.Like)
	case strings.HasPrefix(cb.Data, dislikePrefix):
		return d.handleVote(ctx, cb, chatID, userID, strings.TrimPrefix(cb.Data, dislikePrefix), ratings.Dislike)
	default:
		// Unknown or malformed token: ignore, never fail.
		d.logger.Debug("ignoring unknown callback token", zap.String("data", cb.Data))

		return d.messenger.AnswerCallbackQuery(ctx, cb.ID, "")
	}
}

func (d *Dispatcher) handleSetLocale(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, userID string, locale quota.Locale) error {
	if err := d.quota.SetLocale(ctx, userID, locale); err != nil {
		return d.apologize(ctx, chatID, locale, err)
	}

	if err := d.messenger.AnswerCallbackQuery(ctx, cb.ID, msgLanguageChanged(locale)); err != nil {
		d.logger.Warn("failed to answer callback", zap.Error(err))
	}

	return d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text:   msgLanguageChanged(locale),
	})
}

func (d *Dispatcher) handleVote(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, userID, jokeID string, direction ratings.Direction) error {
	record, err := d.quota.Resolve(ctx, userID)
	if err != nil {
		return d.apologize(ctx, chatID, quota.LocaleUK, err)
	}

	locale := record.Locale

	updated, err := d.ledger.ApplyVote(ctx, jokeID, direction)
	if err != nil {
		if errors.Is(err, ratings.ErrNotFound) {
			// Store reset between delivery and vote: report softly, the vote
			// is simply not recorded.
			return d.messenger.AnswerCallbackQuery(ctx, cb.ID, msgJokeGone(locale))
		}

		return d.apologize(ctx, chatID, locale, err)
	}

	if err := d.messenger.AnswerCallbackQuery(ctx, cb.ID, msgVoteRecorded(locale)); err != nil {
		d.logger.Warn("failed to answer callback", zap.Error(err))
	}

	if err := d.messenger.ClearReplyMarkup(ctx, chatID, cb.Message.MessageID); err != nil {
		d.logger.Warn("failed to clear keyboard", zap.Error(err))
	}

	if err := d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text:   msgTally(locale, updated.Likes, updated.Dislikes),
	}); err != nil {
		return err
	}

	event := &analytics.VoteCastEvent{
		JokeID:    jokeID,
		Direction: string(direction),
		Likes:     updated.Likes,
		Dislikes:  updated.Dislikes,
		CastAt:    d.now(),
	}

	if err := d.publishVote(event); err != nil {
		d.logger.Error("failed to publish vote event",
			zap.String("jokeId", jokeID),
			zap.Error(err),
		)
	}

	return nil
}

// releaseSlot hands a reserved quota slot back after a failed delivery, so a
// provider outage does not burn the user's daily allowance.
func (d *Dispatcher) releaseSlot(ctx context.Context, userID string) {
	if err := d.quota.Release(ctx, userID, quota.CategoryJokes); err != nil {
		d.logger.Error("failed to release quota slot",
			zap.String("user", userID),
			zap.Error(err),
		)
	}
}

// apologize reports an internal failure to the user without surfacing
// details. The original error is returned for logging by the transport.
func (d *Dispatcher) apologize(ctx context.Context, chatID int64, locale quota.Locale, cause error) error {
	if err := d.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text:   msgProviderFailure(locale),
	}); err != nil {
		d.logger.Warn("failed to send apology", zap.Error(err))
	}

	return cause
}
