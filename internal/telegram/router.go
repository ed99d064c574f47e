package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/callplanner/internal/callplan"
	"github.com/ykvlv/callplanner/internal/domain"
	"github.com/ykvlv/callplanner/internal/metrics"
)

// Pending state keys used in conversational flows.
const (
	pendingTZ   = "await_tz_text"
	pendingDone = "await_done_text"
)

// Sender is the part of the Bot API the router talks to. *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Planner is the subset of the call-planning service the chat commands use.
type Planner interface {
	UpdateCallSchedule(ctx context.Context, leadID int64, completedAt time.Time) (*callplan.ScheduleResult, error)
	TodaysCalls(ctx context.Context, requesterTZ string) ([]domain.DueCall, error)
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot       Sender
	log       *zap.Logger
	planner   Planner
	metrics   *metrics.Metrics
	defaultTZ string
	now       func() time.Time

	mu    sync.RWMutex
	state map[int64]string // chatID -> pending state
	tz    map[int64]string // chatID -> timezone chosen with /tz
}

// NewRouter creates a new Telegram router. Chats that never ran /tz see
// their calls in defaultTZ.
func NewRouter(bot Sender, log *zap.Logger, planner Planner, m *metrics.Metrics, defaultTZ string) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if defaultTZ == "" {
		defaultTZ = domain.DefaultTimezone
	}
	return &Router{
		bot:       bot,
		log:       log,
		planner:   planner,
		metrics:   m,
		defaultTZ: defaultTZ,
		now:       time.Now,
		state:     make(map[int64]string),
		tz:        make(map[int64]string),
	}
}

func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

func (r *Router) setChatTZ(chatID int64, tz string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tz[chatID] = tz
}

// chatTZ returns the chat's timezone or the default one.
func (r *Router) chatTZ(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tz, ok := r.tz[chatID]; ok {
		return tz
	}
	return r.defaultTZ
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		cmd, args := splitCommand(msg.Text)

		// Any command aborts a half-finished conversation.
		if cmd != "" {
			r.clearPending(chatID)
		}

		switch cmd {
		case "/start":
			r.count("start")
			r.handleStart(chatID)
		case "/help":
			r.count("help")
			r.handleHelp(chatID)
		case "/today":
			r.count("today")
			r.handleToday(ctx, chatID, args)
		case "/tz":
			r.count("tz")
			r.handleTZ(chatID, args)
		case "/done":
			r.count("done")
			r.handleDone(ctx, chatID, args)
		case "":
			r.count("text")
			r.handleFreeForm(ctx, chatID, strings.TrimSpace(msg.Text))
		default:
			r.count("unknown")
			r.sendText(chatID, unknownCommandText)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		chatID := cb.Message.Chat.ID
		r.count("callback")

		switch {
		case strings.HasPrefix(cb.Data, "tz:"):
			r.handleTZCallback(chatID, cb.Data, cb.ID)
		default:
			// Unknown callback, ignore silently
			_ = r.answerCallback(cb.ID, "")
		}
	}
}

func (r *Router) count(command string) {
	r.metrics.TelegramUpdates.WithLabelValues(command).Inc()
}

// splitCommand returns "/cmd" (without a @botname suffix) and its arguments,
// or an empty command for plain text.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd := fields[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}
