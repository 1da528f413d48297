// Package bot is the Telegram front end: menus, license commands and the
// document scan flow.
package bot

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lunhatthanh83-boop/bottele/internal/license"
	"github.com/lunhatthanh83-boop/bottele/internal/mailcheck"
	"github.com/lunhatthanh83-boop/bottele/internal/metrics"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
	"github.com/lunhatthanh83-boop/bottele/internal/quota"
	"github.com/lunhatthanh83-boop/bottele/internal/scanner"
	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

// Session modes a chat can be in while waiting for a file.
const (
	modeMailChecker = "mail_checker"
)

// client is the slice of the Telegram API the handler needs, kept narrow
// so tests can swap in a recorder.
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type session struct {
	mode   string
	target string
}

type Handler struct {
	bot      client
	scanner  *scanner.Scanner
	registry *probe.Registry
	tracker  *quota.Tracker
	licenses *license.Manager
	mail     *mailcheck.Checker
	accounts *store.AccountStore
	stats    *store.StatsStore
	metrics  *metrics.Collector
	logger   *zap.Logger

	adminID           string
	channelInviteLink string

	// editLimiter paces progress-message edits so long batches do not
	// trip Telegram flood control.
	editLimiter *rate.Limiter

	httpClient *http.Client
	// fetchFile overrides document downloading when set. Tests use it to
	// avoid the Telegram file API.
	fetchFile func(ctx context.Context, fileID string) ([]byte, error)

	mu       sync.Mutex
	sessions map[int64]*session
}

type Deps struct {
	Bot               client
	Scanner           *scanner.Scanner
	Registry          *probe.Registry
	Tracker           *quota.Tracker
	Licenses          *license.Manager
	Mail              *mailcheck.Checker
	Accounts          *store.AccountStore
	Stats             *store.StatsStore
	Metrics           *metrics.Collector
	Logger            *zap.Logger
	AdminID           string
	ChannelInviteLink string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		bot:               d.Bot,
		scanner:           d.Scanner,
		registry:          d.Registry,
		tracker:           d.Tracker,
		licenses:          d.Licenses,
		mail:              d.Mail,
		accounts:          d.Accounts,
		stats:             d.Stats,
		metrics:           d.Metrics,
		logger:            d.Logger,
		adminID:           d.AdminID,
		channelInviteLink: d.ChannelInviteLink,
		editLimiter:       rate.NewLimiter(rate.Every(1500*time.Millisecond), 1),
		httpClient:        &http.Client{Timeout: 60 * time.Second},
		sessions:          make(map[int64]*session),
	}
}

// Run drains the update channel until it closes or ctx is cancelled.
// Every update is handled on its own goroutine, matching how scans can
// overlap across chats.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go h.HandleUpdate(ctx, update)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Update handler panicked", zap.Any("panic", r))
		}
	}()

	switch {
	case update.Message != nil && update.Message.Document != nil:
		h.handleDocument(ctx, update.Message)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		h.cmdStart(msg)
	case "menu":
		h.cmdMenu(msg)
	case "checkplan":
		h.cmdCheckPlan(msg.Chat.ID, h.userID(msg.From), 0)
	case "activatekey":
		h.cmdActivateKey(msg)
	case "stats":
		h.cmdAdminStats(msg.Chat.ID, h.userID(msg.From))
	case "setvip":
		h.cmdSetVIP(msg)
	case "delvip":
		h.cmdDelVIP(msg)
	case "getkey":
		h.cmdGetKey(msg)
	case "removekey":
		h.cmdRemoveKey(msg)
	}
}

func (h *Handler) userID(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}

func (h *Handler) isAdmin(id string) bool {
	return id == h.adminID
}

func (h *Handler) session(chatID int64) *session {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[chatID]
	if !ok {
		s = &session{}
		h.sessions[chatID] = s
	}
	return s
}

func (h *Handler) setSession(chatID int64, mode, target string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[chatID] = &session{mode: mode, target: target}
}

func (h *Handler) clearSession(chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, chatID)
}

// restrictedPrivate reports whether the user must be kept out of private
// chat. Group chats have negative IDs and are always open; the admin and
// vip users may use private chat.
func (h *Handler) restrictedPrivate(userID string, chatID int64) bool {
	if chatID < 0 {
		return false
	}
	if h.isAdmin(userID) {
		return false
	}
	acc, err := h.tracker.Account(userID)
	if err != nil {
		h.logger.Error("Loading account failed", zap.String("user_id", userID), zap.Error(err))
		return true
	}
	return acc.Plan != store.PlanVIP
}

func (h *Handler) reply(chatID int64, text string) tgbotapi.Message {
	return h.replyMarkup(chatID, text, nil)
}

func (h *Handler) replyMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := h.bot.Send(msg)
	if err != nil {
		h.logger.Warn("Sending message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent
}

func (h *Handler) edit(chatID int64, messageID int, text string) {
	if _, err := h.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		h.logger.Debug("Editing message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) editMarkup(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if markup != nil {
		edit.ReplyMarkup = markup
	}
	if _, err := h.bot.Send(edit); err != nil {
		h.logger.Debug("Editing message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) sendDocument(chatID int64, name string, data []byte, caption string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := h.bot.Send(doc); err != nil {
		h.logger.Warn("Sending document failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
