package bot

import (
	"fmt"
	"strings"

	"github.com/serroba/joke-bot-go/internal/quota"
	"github.com/serroba/joke-bot-go/internal/ratings"
)

// The bot answers in the user's stored locale. Every user-facing string lives
// here so the dispatcher stays free of literals.

func msgChooseLanguage() string {
	return "Виберіть мову / Choose language"
}

func msgLanguageChanged(loc quota.Locale) string {
	if loc == quota.LocaleEN {
		return "Language changed!"
	}

	return "Мову змінено!"
}

func msgHelp(loc quota.Locale) string {
	if loc == quota.LocaleEN {
		return "/joke - Get a joke\n/top_jokes - Top 10 jokes\n/check - Check your limits\n/help - Help"
	}

	return "/joke - Отримати жарт\n/top_jokes - Топ 10 жартів\n/check - Перевірити ліміти\n/help - Допомога"
}

func msgLimitReached(loc quota.Locale) string {
	if loc == quota.LocaleEN {
		return "Sorry, you have reached your joke limit for today!"
	}

	return "Вибачте, ви досягли ліміту жартів на сьогодні!"
}

func msgProviderFailure(loc quota.Locale) string {
	if loc == quota.LocaleEN {
		return "Could not fetch a joke. Please try again later."
	}

	return "Не вдалося отримати жарт. Спробуйте пізніше."
}

func msgRemaining(loc quota.Locale, remaining, limit int) string {
	if loc == quota.LocaleEN {
		return fmt.Sprintf("📊 *Your limit today:*\nJokes: %d/%d", remaining, limit)
	}

	return fmt.Sprintf("📊 *Ваш ліміт на сьогодні:*\nЖарти: %d/%d", remaining, limit)
}

func msgJoke(loc quota.Locale, setup, punchline string) string {
	if loc == quota.LocaleEN {
		return fmt.Sprintf("😂 *Joke:*\n%s\n\n🤣 *Punchline:*\n%s", setup, punchline)
	}

	return fmt.Sprintf("😂 *Жарт:*\n%s\n\n🤣 *Фінал:*\n%s", setup, punchline)
}

func msgVoteRecorded(loc quota.Locale) string {
	if loc == quota.LocaleEN {
		return "Vote recorded!"
	}

	return "Оцінка врахована!"
}

func msgJokeGone(loc quota.Locale) string {
	if loc == quota.LocaleEN {
		return "This joke is no longer available."
	}

	return "Цей жарт уже недоступний."
}

func msgTally(loc quota.Locale, likes, dislikes int) string {
	if loc == quota.LocaleEN {
		return fmt.Sprintf("Joke updated:\n👍 %d | 👎 %d", likes, dislikes)
	}

	return fmt.Sprintf("Жарт оновлено:\n👍 %d | 👎 %d", likes, dislikes)
}

func msgNoRatedJokes(loc quota.Locale) string {
	if loc == quota.LocaleEN {
		return "No rated jokes yet!"
	}

	return "Ще немає оцінених жартів!"
}

func msgTopJokes(loc quota.Locale, ranked []ratings.RankedJoke) string {
	var sb strings.Builder

	if loc == quota.LocaleEN {
		sb.WriteString(fmt.Sprintf("🏆 *Top %d jokes:*\n", len(ranked)))
	} else {
		sb.WriteString(fmt.Sprintf("🏆 *Топ %d жартів:*\n", len(ranked)))
	}

	for i, joke := range ranked {
		sb.WriteString(fmt.Sprintf("%d. 👍 %d | 👎 %d\n%s - %s\n\n",
			i+1, joke.Likes, joke.Dislikes, joke.Setup, joke.Punchline))
	}

	return sb.String()
}
