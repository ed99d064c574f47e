package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/callplanner/internal/domain"
)

// UI texts in English
const (
	startText = "👋 I keep track of which restaurant leads you should call and when."
	helpText  = "Commands:\n" +
		"/today [TZ] - calls due today, in your timezone or TZ\n" +
		"/tz [TZ] - set your timezone\n" +
		"/done <leadID> [time] - record a completed call (time in RFC 3339, default now)\n" +
		"/help - this message"
	unknownCommandText = "Unknown command. Send /help for the list."
	invalidTZText      = "Invalid timezone. Example: Asia/Kolkata"
)

// formatDueCalls renders the today list; day is the requester's date.
func formatDueCalls(day, tz string, calls []domain.DueCall) string {
	if len(calls) == 0 {
		return fmt.Sprintf("No calls planned for %s (%s). 🎉", day, tz)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📞 Calls for %s (%s):\n", day, tz)
	for _, c := range calls {
		fmt.Fprintf(&b, "\n#%d %s\n• your time: %s\n• lead time: %s %s\n",
			c.Lead.ID, c.Lead.RestaurantName,
			clockPart(c.RequesterLocalTime),
			clockPart(c.LocalTime), c.Lead.Timezone,
		)
	}
	b.WriteString("\nMark a call as done with /done <leadID>.")
	return b.String()
}

// clockPart keeps "HH:MM" of a "YYYY-MM-DD HH:MM:SS" string.
func clockPart(local string) string {
	if len(local) >= 16 {
		return local[11:16]
	}
	return local
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/today"),
			tgbotapi.NewKeyboardButton("/done"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/tz"),
			tgbotapi.NewKeyboardButton("/help"),
		),
	)
}

func tzPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Asia/Kolkata", "tz:Asia/Kolkata"),
			tgbotapi.NewInlineKeyboardButtonData("Asia/Dubai", "tz:Asia/Dubai"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Europe/London", "tz:Europe/London"),
			tgbotapi.NewInlineKeyboardButtonData("America/New_York", "tz:America/New_York"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("UTC", "tz:UTC"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "tz:custom"),
		),
	)
}
