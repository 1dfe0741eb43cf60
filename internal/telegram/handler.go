// Package telegram runs onboarding as a chat conversation. Each member gets a
// controller keyed by their Telegram user ID, driven by inline keyboard
// callbacks that edit a single message in place.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/kingrea/skillmatch/internal/logbook"
	"github.com/kingrea/skillmatch/internal/onboarding"
	"github.com/kingrea/skillmatch/internal/preferences"
)

const helpText = `Commands:
/register - Set up your skill profile.
/preferences - Show the answers you saved.
/cancel - Stop onboarding without saving.
/help - Show this message.`

// Sender is the part of *bot.Bot the handler talks to.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Store persists and reads back preference records.
type Store interface {
	onboarding.PreferenceWriter
	Load(ctx context.Context, profile string) (onboarding.Answers, error)
}

type session struct {
	mu         sync.Mutex
	controller *onboarding.Controller
	chatID     int64
	messageID  int
}

// Handler keeps one onboarding session per Telegram user.
type Handler struct {
	questions []onboarding.Question
	goalID    string
	store     Store
	journal   *logbook.Logbook
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// Option customizes a Handler.
type Option func(*Handler)

// WithJournal records completions in the project journal.
func WithJournal(lb *logbook.Logbook) Option {
	return func(h *Handler) {
		if lb != nil {
			h.journal = lb
		}
	}
}

// WithLogger sets the zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithGoalQuestion overrides which question decides routing.
func WithGoalQuestion(id string) Option {
	return func(h *Handler) {
		if id = strings.TrimSpace(id); id != "" {
			h.goalID = id
		}
	}
}

// NewHandler validates the catalog once so per-user controllers cannot fail
// on it later.
func NewHandler(questions []onboarding.Question, store Store, opts ...Option) (*Handler, error) {
	h := &Handler{
		questions: questions,
		goalID:    onboarding.DefaultGoalQuestion,
		store:     store,
		logger:    zap.NewNop(),
		sessions:  map[int64]*session{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := onboarding.ValidateCatalog(questions, h.goalID); err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return h, nil
}

// Profile is the preferences profile used for a Telegram user.
func Profile(userID int64) string {
	return fmt.Sprintf("tg-%d", userID)
}

// Handle matches bot.HandlerFunc so it can be registered as the default handler.
func (h *Handler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h *Handler) handle(ctx context.Context, s Sender, update *models.Update) {
	switch {
	case update == nil:
		return
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, s, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		h.handleMessage(ctx, s, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, s Sender, msg *models.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	command := strings.Fields(msg.Text)
	name := ""
	if len(command) > 0 {
		// Commands may arrive as /register@SkillMatchBot in groups.
		name, _, _ = strings.Cut(command[0], "@")
	}
	switch name {
	case "/start", "/register":
		h.startSession(ctx, s, userID, chatID)
	case "/preferences":
		h.showPreferences(ctx, s, userID, chatID)
	case "/cancel":
		if sess := h.lookup(userID); sess != nil && h.dropSession(userID, sess) {
			h.send(ctx, s, chatID, "Onboarding cancelled. Nothing was saved.")
			h.journal.Cancelled(Profile(userID), "telegram")
			return
		}
		h.send(ctx, s, chatID, "There is nothing to cancel.")
	case "/help":
		h.send(ctx, s, chatID, helpText)
	default:
		h.send(ctx, s, chatID, "I didn't understand that. Use /register to set up your profile or /help.")
	}
}

func (h *Handler) startSession(ctx context.Context, s Sender, userID, chatID int64) {
	sess := &session{chatID: chatID}
	router := onboarding.RouterFunc(func(ctx context.Context, dest onboarding.Destination) error {
		_, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: destinationText(dest)})
		return err
	})
	opts := []onboarding.Option{
		onboarding.WithWriter(h.store),
		onboarding.WithRouter(router),
		onboarding.WithProfile(Profile(userID)),
		onboarding.WithGoalQuestion(h.goalID),
		onboarding.WithLogger(h.logger.With(zap.Int64("telegram_user", userID))),
	}
	if h.journal != nil {
		opts = append(opts, onboarding.WithJournal(h.journal))
	}
	ctrl, err := onboarding.NewController(h.questions, opts...)
	if err != nil {
		h.logger.Error("creating controller failed", zap.Error(err))
		h.send(ctx, s, chatID, "Something went wrong. Please try again later.")
		return
	}
	sess.controller = ctrl

	flow := ctrl.Flow()
	msg, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        questionText(flow),
		ReplyMarkup: keyboard(flow),
	})
	if err != nil {
		h.logger.Warn("sending first question failed", zap.Error(err))
		return
	}
	sess.messageID = msg.ID

	// A repeated /register restarts from the first question.
	h.mu.Lock()
	h.sessions[userID] = sess
	h.mu.Unlock()
	h.logger.Info("onboarding started", zap.Int64("telegram_user", userID), zap.String("session", ctrl.SessionID()))
}

func (h *Handler) lookup(userID int64) *session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[userID]
}

// dropSession forgets sess if it is still the user's current session. A
// /register that replaced it in the meantime keeps the newer one.
func (h *Handler) dropSession(userID int64, sess *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[userID] != sess {
		return false
	}
	delete(h.sessions, userID)
	return true
}

// Sessions returns how many members are mid-onboarding.
func (h *Handler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) handleCallback(ctx context.Context, s Sender, query *models.CallbackQuery) {
	cb, err := parseCallback(query.Data)
	if err != nil {
		h.logger.Debug("ignoring callback", zap.String("data", query.Data), zap.Error(err))
		h.answer(ctx, s, query.ID, "", false)
		return
	}
	userID := query.From.ID
	sess := h.lookup(userID)
	if sess == nil {
		h.answer(ctx, s, query.ID, "This session has expired. Send /register to start again.", true)
		return
	}
	if m := query.Message.Message; m != nil && m.ID != sess.messageID {
		h.answer(ctx, s, query.ID, "That question belongs to an older session.", false)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	ctrl := sess.controller
	if ctrl.Done() {
		h.answer(ctx, s, query.ID, "Your preferences are already saved.", false)
		return
	}

	switch cb.action {
	case actionSelect:
		options := ctrl.Flow().Current().Options
		if cb.option >= len(options) || !ctrl.Select(options[cb.option]) {
			h.answer(ctx, s, query.ID, "That option is no longer available.", false)
			return
		}
	case actionNext:
		if !ctrl.Next() {
			h.answer(ctx, s, query.ID, "Choose an answer to continue.", false)
			return
		}
	case actionPrevious:
		if !ctrl.Previous() {
			h.answer(ctx, s, query.ID, "", false)
			return
		}
	case actionComplete:
		h.complete(ctx, s, userID, sess, query.ID)
		return
	}
	h.answer(ctx, s, query.ID, "", false)
	h.render(ctx, s, sess)
}

func (h *Handler) complete(ctx context.Context, s Sender, userID int64, sess *session, queryID string) {
	ctrl := sess.controller
	if !ctrl.Flow().Ready() {
		h.answer(ctx, s, queryID, "Answer the last question to finish.", false)
		return
	}
	// Swap the keyboard out first so the destination message lands below it.
	h.edit(ctx, s, sess, "Saving your preferences...", nil)
	_, ok, err := ctrl.Complete(ctx)
	switch {
	case !ok && err != nil:
		h.logger.Warn("completing onboarding failed", zap.Int64("telegram_user", userID), zap.Error(err))
		h.answer(ctx, s, queryID, "Could not save your preferences. Please try again.", true)
		h.render(ctx, s, sess)
		return
	case !ok:
		h.answer(ctx, s, queryID, "Answer the last question to finish.", false)
		h.render(ctx, s, sess)
		return
	case err != nil:
		h.logger.Warn("sending destination failed", zap.Int64("telegram_user", userID), zap.Error(err))
	}
	h.dropSession(userID, sess)
	h.answer(ctx, s, queryID, "Preferences saved", false)
	h.edit(ctx, s, sess, "Preferences saved ✅", nil)
}

func (h *Handler) render(ctx context.Context, s Sender, sess *session) {
	flow := sess.controller.Flow()
	h.edit(ctx, s, sess, questionText(flow), keyboard(flow))
}

func (h *Handler) showPreferences(ctx context.Context, s Sender, userID, chatID int64) {
	answers, err := h.store.Load(ctx, Profile(userID))
	if errors.Is(err, preferences.ErrNotFound) {
		h.send(ctx, s, chatID, "You have no saved preferences yet. Send /register to get started.")
		return
	}
	if err != nil {
		h.logger.Warn("loading preferences failed", zap.Int64("telegram_user", userID), zap.Error(err))
		h.send(ctx, s, chatID, "Could not load your preferences. Please try again later.")
		return
	}
	h.send(ctx, s, chatID, preferencesText(h.questions, answers))
}

func (h *Handler) send(ctx context.Context, s Sender, chatID int64, text string) {
	if _, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.logger.Warn("error sending message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (h *Handler) edit(ctx context.Context, s Sender, sess *session, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    sess.chatID,
		MessageID: sess.messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := s.EditMessageText(ctx, params); err != nil {
		h.logger.Warn("error editing message", zap.Int64("chat", sess.chatID), zap.Error(err))
	}
}

func (h *Handler) answer(ctx context.Context, s Sender, queryID, text string, alert bool) {
	_, err := s.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Debug("error answering callback", zap.Error(err))
	}
}
