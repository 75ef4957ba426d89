package quota

import "time"

// Locale is a user's preferred response language.
type Locale string

const (
	// LocaleUK is Ukrainian, the default for new users.
	LocaleUK Locale = "uk"
	// LocaleEN is English, the source language of the joke provider.
	LocaleEN Locale = "en"
)

// ParseLocale maps a stored or incoming locale string to a known Locale,
// falling back to Ukrainian for unknown values.
func ParseLocale(s string) Locale {
	if Locale(s) == LocaleEN {
		return LocaleEN
	}

	return LocaleUK
}

// CategoryJokes is the content category tracked by the current feature set.
// The record shape supports further independent categories (e.g. "memes")
// without cross-category interference.
const CategoryJokes = "jokes"

// UserRecord is the persisted per-user quota state. Unknown JSON fields are
// ignored on load so the schema can grow without breaking older data.
type UserRecord struct {
	Counters    map[string]int `json:"counters"`
	WindowStart time.Time      `json:"windowStart"`
	Locale      Locale         `json:"locale"`
}

func newUserRecord(now time.Time) UserRecord {
	return UserRecord{
		Counters:    map[string]int{},
		WindowStart: now,
		Locale:      LocaleUK,
	}
}

// Count returns the counter for a category, zero when never consumed.
func (r UserRecord) Count(category string) int {
	return r.Counters[category]
}
