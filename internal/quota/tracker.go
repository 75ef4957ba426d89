package quota

import (
	"context"
	"time"

	"github.com/serroba/joke-bot-go/internal/store"
	"go.uber.org/zap"
)

// DefaultDailyLimit is the number of content items a user may receive per
// category within one window.
const DefaultDailyLimit = 20

// DefaultWindow is the length of the accounting window. Rollover is lazy:
// a dormant user's window only rolls at their next interaction, there is no
// background sweep.
const DefaultWindow = 24 * time.Hour

// Result is the outcome of a quota check.
type Result string

const (
	Authorized Result = "authorized"
	Denied     Result = "denied"
)

// Tracker owns the per-user daily counters. All mutations go through the
// collection's serialization boundary, so concurrent webhook deliveries for
// the same or different users cannot lose updates.
type Tracker struct {
	users  *store.Collection[UserRecord]
	limit  int
	window time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithDailyLimit overrides the per-category daily limit.
func WithDailyLimit(limit int) Option {
	return func(t *Tracker) { t.limit = limit }
}

// WithWindow overrides the accounting window length.
func WithWindow(window time.Duration) Option {
	return func(t *Tracker) { t.window = window }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a quota tracker over the users collection.
func NewTracker(users *store.Collection[UserRecord], logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		users:  users,
		limit:  DefaultDailyLimit,
		window: DefaultWindow,
		now:    time.Now,
		logger: logger,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// DailyLimit returns the configured per-category limit.
func (t *Tracker) DailyLimit() int {
	return t.limit
}

// Resolve returns the user's record, creating and persisting a default one on
// first contact so concurrent readers observe a consistent default.
func (t *Tracker) Resolve(ctx context.Context, userID string) (UserRecord, error) {
	var record UserRecord

	err := t.users.Update(ctx, func(records map[string]UserRecord) error {
		record = t.resolve(records, userID)
		records[userID] = record

		return nil
	})

	return record, err
}

// TryConsume reserves one slot in the user's daily quota for the category.
// The window is rolled first if expired. When the counter has reached the
// limit the call returns Denied without mutating anything. A reserved slot
// that turns out not to result in a delivery should be handed back via
// Release, so a provider outage does not burn quota.
func (t *Tracker) TryConsume(ctx context.Context, userID, category string) (Result, error) {
	result := Denied

	err := t.users.Update(ctx, func(records map[string]UserRecord) error {
		record := t.resolve(records, userID)

		if record.Count(category) >= t.limit {
			records[userID] = record

			return nil
		}

		record.Counters[category]++
		records[userID] = record
		result = Authorized

		return nil
	})
	if err != nil {
		return Denied, err
	}

	if result == Denied {
		t.logger.Info("quota exhausted",
			zap.String("user", userID),
			zap.String("category", category),
		)
	}

	return result, nil
}

// Release hands back one slot previously reserved by TryConsume. If the
// window rolled over in between, the counter is already zero and the release
// is a no-op.
func (t *Tracker) Release(ctx context.Context, userID, category string) error {
	return t.users.Update(ctx, func(records map[string]UserRecord) error {
		record := t.resolve(records, userID)

		if record.Counters[category] > 0 {
			record.Counters[category]--
		}

		records[userID] = record

		return nil
	})
}

// Remaining reports how many items the user may still receive today.
// Reporting goes through Update rather than View because an expired window
// must be persisted once observed, otherwise a later write could re-apply a
// stale rollover.
func (t *Tracker) Remaining(ctx context.Context, userID, category string) (int, error) {
	remaining := 0

	err := t.users.Update(ctx, func(records map[string]UserRecord) error {
		record := t.resolve(records, userID)
		records[userID] = record

		remaining = t.limit - record.Count(category)
		if remaining < 0 {
			remaining = 0
		}

		return nil
	})

	return remaining, err
}

// SetLocale upserts the user's preferred language.
func (t *Tracker) SetLocale(ctx context.Context, userID string, locale Locale) error {
	return t.users.Update(ctx, func(records map[string]UserRecord) error {
		record := t.resolve(records, userID)
		record.Locale = locale
		records[userID] = record

		return nil
	})
}

// resolve returns the user's record with defaults applied and the window
// rolled if expired. Callers must write the result back into records.
func (t *Tracker) resolve(records map[string]UserRecord, userID string) UserRecord {
	now := t.now()

	record, ok := records[userID]
	if !ok {
		return newUserRecord(now)
	}

	if record.Counters == nil {
		record.Counters = map[string]int{}
	}

	if record.Locale == "" {
		record.Locale = LocaleUK
	}

	if now.Sub(record.WindowStart) > t.window {
		record.Counters = map[string]int{}
		record.WindowStart = now
	}

	return record
}
