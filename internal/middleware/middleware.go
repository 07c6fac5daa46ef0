package middleware

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/docx-quiz-bot/internal/contextkeys"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
)

// UserLookup is the part of the user store needed to resolve a language.
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*types.User, error)
}

type Middlewares struct {
	users  UserLookup
	states types.UserStateStore
	log    *logger.Logger
}

func NewMiddlewares(users UserLookup, states types.UserStateStore, log *logger.Logger) *Middlewares {
	if log == nil {
		log = logger.NewNop()
	}
	return &Middlewares{
		users:  users,
		states: states,
		log:    log,
	}
}

// Recover keeps one broken update from stopping the polling loop.
func (m *Middlewares) Recover(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error(ctx, "Recovered panic in handler", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		next(ctx, b, update)
	}
}

// UserMiddleware puts the sender id and language into the context. Updates
// without a sender are dropped.
func (m *Middlewares) UserMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		userID, languageCode := senderOf(update)
		if userID == 0 {
			return
		}

		ctx = contextkeys.WithUserID(ctx, userID)
		ctx = logger.WithUserID(ctx, userID)
		ctx = contextkeys.WithLang(ctx, string(m.resolveLang(ctx, userID, languageCode)))
		next(ctx, b, update)
	}
}

// resolveLang prefers the cached choice, then the stored profile, then the
// Telegram client language.
func (m *Middlewares) resolveLang(ctx context.Context, userID int64, languageCode string) i18n.Lang {
	var state types.UserState
	if m.states != nil {
		st, err := m.states.GetUserState(ctx, userID)
		if err != nil {
			m.log.Warn(ctx, "Failed to read user state", "error", err)
		} else if l, ok := i18n.Lookup(st.Lang); ok {
			return l
		}
		state = st
	}

	if m.users != nil {
		u, err := m.users.GetUser(ctx, userID)
		if err == nil && u != nil {
			if l, ok := i18n.Lookup(u.Language); ok {
				if m.states != nil {
					state.Lang = string(l)
					if err := m.states.SetUserState(ctx, userID, state); err != nil {
						m.log.Warn(ctx, "Failed to cache user language", "error", err)
					}
				}
				return l
			}
		}
	}
	return i18n.FromLanguageCode(languageCode)
}

func senderOf(update *models.Update) (int64, string) {
	switch {
	case update == nil:
		return 0, ""
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, update.Message.From.LanguageCode
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, update.CallbackQuery.From.LanguageCode
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From.ID, update.PreCheckoutQuery.From.LanguageCode
	default:
		return 0, ""
	}
}

func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		next(Analyze(ctx, update), b, update)
	}
}

// Analyze classifies the update and stores the result in the context.
func Analyze(ctx context.Context, update *models.Update) context.Context {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Data != "":
		ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeClickButton)
		return contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
	case update.PreCheckoutQuery != nil:
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypePreCheckout)
	case update.Message == nil:
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeUnknown)
	}

	msg := update.Message
	switch {
	case msg.SuccessfulPayment != nil:
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypePayment)
	case msg.Document != nil:
		ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeDocument)
		return contextkeys.WithFileInfo(ctx, contextkeys.FileInfo{
			FileID:       msg.Document.FileID,
			FileSize:     int64(msg.Document.FileSize),
			MimeType:     msg.Document.MimeType,
			FileName:     msg.Document.FileName,
			MediaGroupID: msg.MediaGroupID,
			MessageID:    msg.ID,
		})
	case strings.HasPrefix(msg.Text, "/"):
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeCommand)
	case len(msg.Photo) > 0, msg.Video != nil, msg.Audio != nil, msg.Voice != nil,
		msg.Sticker != nil, msg.VideoNote != nil, msg.Animation != nil:
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeMedia)
	case msg.Text != "":
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeText)
	default:
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeUnknown)
	}
}
