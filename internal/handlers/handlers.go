package handlers

import (
	"context"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/batch"
	"github.com/BatmanBruc/docx-quiz-bot/internal/contextkeys"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// BotAPI is the part of *bot.Bot the handlers call.
type BotAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	AnswerPreCheckoutQuery(ctx context.Context, params *bot.AnswerPreCheckoutQueryParams) (bool, error)
}

// BatchService is what the handlers need from *batch.Service.
type BatchService interface {
	AddFile(ctx context.Context, key batch.Key, f batch.File, origin batch.Origin) (batch.Snapshot, error)
	Choose(ctx context.Context, userID int64, invoiceID string, method types.PaymentMethod) error
	Settle(ctx context.Context, st batch.Settlement) error
	CheckoutReady(invoiceID string, amount int64) error
}

type Downloader interface {
	Download(ctx context.Context, userID int64, fileID, name string) (string, error)
}

type ArtifactRemover interface {
	Remove(paths ...string)
}

type Config struct {
	AdminID     int64
	BotUsername string
	Currency    string
}

type Deps struct {
	Batches    BatchService
	Users      types.UserStore
	Settings   types.SettingsStore
	Promos     types.PromoStore
	Ledger     types.Ledger
	States     types.UserStateStore
	Downloader Downloader
	Artifacts  ArtifactRemover
	Logger     *logger.Logger
}

type Handlers struct {
	cfg        Config
	batches    BatchService
	users      types.UserStore
	settings   types.SettingsStore
	promos     types.PromoStore
	ledger     types.Ledger
	states     types.UserStateStore
	downloader Downloader
	artifacts  ArtifactRemover
	log        *logger.Logger
}

func NewHandlers(cfg Config, deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "UZS"
	}
	return &Handlers{
		cfg:        cfg,
		batches:    deps.Batches,
		users:      deps.Users,
		settings:   deps.Settings,
		promos:     deps.Promos,
		ledger:     deps.Ledger,
		states:     deps.States,
		downloader: deps.Downloader,
		artifacts:  deps.Artifacts,
		log:        deps.Logger,
	}
}

func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	bh.Dispatch(ctx, b, update)
}

// Dispatch routes an update by the type AnalyzeMessageMiddleware stored.
func (bh *Handlers) Dispatch(ctx context.Context, b BotAPI, update *models.Update) {
	userID, ok := contextkeys.GetUserID(ctx)
	if !ok {
		bh.log.Warn(ctx, "Update without user id")
		return
	}
	lang := langFromCtx(ctx)
	messageType, _ := contextkeys.GetMessageType(ctx)

	switch messageType {
	case contextkeys.MessageTypeCommand:
		bh.HandleCommand(ctx, b, update, userID)
	case contextkeys.MessageTypeDocument:
		bh.HandleFile(ctx, b, update, userID)
	case contextkeys.MessageTypeText:
		bh.HandleText(ctx, b, update, userID)
	case contextkeys.MessageTypeClickButton:
		bh.HandleClickButton(ctx, b, update, userID)
	case contextkeys.MessageTypePreCheckout:
		bh.HandlePreCheckout(ctx, b, update, userID)
	case contextkeys.MessageTypePayment:
		bh.HandleSuccessfulPayment(ctx, b, update, userID)
	default:
		if chatID := getChatIDFromUpdate(update); chatID != 0 {
			bh.sendText(ctx, b, chatID, messages.ErrorUnsupportedMessageType(lang), nil)
		}
	}
}

func langFromCtx(ctx context.Context) i18n.Lang {
	if v, ok := contextkeys.GetLang(ctx); ok {
		return i18n.Parse(v)
	}
	return i18n.Default
}

func getChatIDFromUpdate(update *models.Update) int64 {
	switch {
	case update == nil:
		return 0
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		if m := update.CallbackQuery.Message.Message; m != nil {
			return m.Chat.ID
		}
		if m := update.CallbackQuery.Message.InaccessibleMessage; m != nil {
			return m.Chat.ID
		}
		return update.CallbackQuery.From.ID
	default:
		return 0
	}
}

func (bh *Handlers) sendText(ctx context.Context, b BotAPI, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		bh.log.Warn(ctx, "Failed to send message", "chat_id", chatID, "error", err)
	}
}

func (bh *Handlers) isAdmin(ctx context.Context, userID int64) bool {
	if bh.cfg.AdminID != 0 && userID == bh.cfg.AdminID {
		return true
	}
	if bh.users == nil {
		return false
	}
	u, err := bh.users.GetUser(ctx, userID)
	return err == nil && u != nil && u.IsAdmin
}

func (bh *Handlers) price(ctx context.Context) int64 {
	p, err := bh.ledger.PricePerFile(ctx)
	if err != nil {
		bh.log.Warn(ctx, "Failed to read file price", "error", err)
		return 0
	}
	return p
}

func (bh *Handlers) loadSettings(ctx context.Context) types.Settings {
	if bh.settings == nil {
		return types.Settings{}
	}
	st, err := bh.settings.GetSettings(ctx)
	if err != nil || st == nil {
		bh.log.Warn(ctx, "Failed to read settings", "error", err)
		return types.Settings{}
	}
	return *st
}

func offerLink(st types.Settings, lang i18n.Lang) string {
	var link string
	switch lang {
	case i18n.RU:
		link = st.OfferRU
	case i18n.EN:
		link = st.OfferEN
	default:
		link = st.OfferUZ
	}
	if strings.TrimSpace(link) == "" {
		link = st.OfferUZ
	}
	return strings.TrimSpace(link)
}

// plain drops the HTML tags messages use, for callback alerts.
func plain(s string) string {
	return strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "").Replace(s)
}
