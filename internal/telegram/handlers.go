package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/callplanner/internal/domain"
	"github.com/ykvlv/callplanner/internal/store"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	r.send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) send(msg tgbotapi.MessageConfig) {
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("telegram send failed", zap.Int64("chatID", msg.ChatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// --- Core commands ---

func (r *Router) handleStart(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, startText+"\n\n"+helpText)
	msg.ReplyMarkup = mainMenuKeyboard()
	r.send(msg)
}

func (r *Router) handleHelp(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = mainMenuKeyboard()
	r.send(msg)
}

// --- Today's calls ---

func (r *Router) handleToday(ctx context.Context, chatID int64, args []string) {
	tz := r.chatTZ(chatID)
	if len(args) > 0 {
		tz = args[0]
	}

	calls, err := r.planner.TodaysCalls(ctx, tz)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTimezone) {
			r.sendText(chatID, invalidTZText)
			return
		}
		r.log.Error("todays calls failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not load today's calls. Please try again later.")
		return
	}

	day := r.now().UTC().Format("2006-01-02")
	if loc, err := domain.LoadLocation(tz); err == nil {
		day = r.now().In(loc).Format("2006-01-02")
	}
	r.sendText(chatID, formatDueCalls(day, tz, calls))
}

// --- Timezone flow ---

func (r *Router) handleTZ(chatID int64, args []string) {
	if len(args) > 0 {
		r.applyTZ(chatID, args[0])
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Current timezone: %s\nChoose a timezone or enter your own (Region/City):", r.chatTZ(chatID)))
	msg.ReplyMarkup = tzPresetsKeyboard()
	r.send(msg)
}

func (r *Router) handleTZCallback(chatID int64, data string, cbID string) {
	_ = r.answerCallback(cbID, "")
	if data == "tz:custom" {
		r.sendText(chatID, "Enter timezone (e.g., Asia/Kolkata):")
		r.setPending(chatID, pendingTZ)
		return
	}
	r.applyTZ(chatID, strings.TrimPrefix(data, "tz:"))
}

func (r *Router) applyTZ(chatID int64, raw string) {
	tz, err := domain.ValidateTZ(raw)
	if err != nil {
		r.sendText(chatID, invalidTZText)
		return
	}
	r.setChatTZ(chatID, tz)
	r.sendText(chatID, "Timezone updated: "+tz)
}

// --- Completed call flow ---

func (r *Router) handleDone(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		r.sendText(chatID, "Which lead did you call? Send the lead id, optionally followed by the completion time (RFC 3339).")
		r.setPending(chatID, pendingDone)
		return
	}
	r.completeCall(ctx, chatID, args)
}

func (r *Router) completeCall(ctx context.Context, chatID int64, args []string) {
	leadID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || leadID <= 0 {
		r.sendText(chatID, "Lead id must be a positive number. Example: /done 42")
		return
	}
	completedAt := r.now()
	if len(args) > 1 {
		completedAt, err = time.Parse(time.RFC3339, args[1])
		if err != nil {
			r.sendText(chatID, "Invalid time. Use RFC 3339, e.g. 2025-01-06T18:00:00Z")
			return
		}
	}

	res, err := r.planner.UpdateCallSchedule(ctx, leadID, completedAt)
	switch {
	case err == nil:
		r.sendText(chatID, fmt.Sprintf("✅ Call with lead #%d recorded.\nNext call: %s (lead time)", leadID, res.LocalTime))
	case errors.Is(err, store.ErrNotFound):
		r.sendText(chatID, fmt.Sprintf("Lead #%d not found.", leadID))
	case domain.IsValidation(err):
		r.sendText(chatID, "Cannot schedule the next call: "+err.Error())
	default:
		r.log.Error("complete call failed", zap.Int64("chatID", chatID), zap.Int64("leadID", leadID), zap.Error(err))
		r.sendText(chatID, "Could not record the call. Please try again later.")
	}
}

// --- Free-form dispatcher (for all pending inputs) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	switch r.getPending(chatID) {
	case pendingTZ:
		r.clearPending(chatID)
		r.applyTZ(chatID, text)

	case pendingDone:
		r.clearPending(chatID)
		args := strings.Fields(text)
		if len(args) == 0 {
			r.sendText(chatID, "Nothing to record.")
			return
		}
		r.completeCall(ctx, chatID, args)

	default:
		// No pending flow: ignore free-form message
	}
}
