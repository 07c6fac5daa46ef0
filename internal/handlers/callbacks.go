package handlers

import (
	"context"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/codes"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/internal/notifier"
	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (bh *Handlers) HandleClickButton(ctx context.Context, b BotAPI, update *models.Update, userID int64) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	lang := langFromCtx(ctx)
	chatID := getChatIDFromUpdate(update)
	messageID := 0
	if cq.Message.Message != nil {
		messageID = cq.Message.Message.ID
	}
	data := strings.TrimSpace(cq.Data)

	switch {
	case strings.HasPrefix(data, cbLangPrefix):
		bh.handleLanguageChoice(ctx, b, cq.ID, chatID, messageID, userID, strings.TrimPrefix(data, cbLangPrefix))
	case strings.HasPrefix(data, cbMenuPrefix):
		bh.handleMenu(ctx, b, cq.ID, chatID, messageID, userID, lang, data)
	case data == cbOfferConfirm:
		bh.answerCallback(ctx, b, cq.ID, "")
		bh.sendConvertPrompt(ctx, b, chatID, lang, true)
	case strings.HasPrefix(data, notifier.PayCallbackPrefix):
		bh.handlePaymentChoice(ctx, b, cq.ID, chatID, messageID, userID, lang, data)
	default:
		bh.answerCallbackAlert(ctx, b, cq.ID, plain(messages.ErrorDefault(lang)))
	}
}

func (bh *Handlers) handleLanguageChoice(ctx context.Context, b BotAPI, callbackID string, chatID int64, messageID int, userID int64, code string) {
	lang, ok := i18n.Lookup(code)
	if !ok {
		bh.answerCallbackAlert(ctx, b, callbackID, plain(messages.ErrorDefault(i18n.Default)))
		return
	}
	if err := bh.users.SetLanguage(ctx, userID, string(lang)); err != nil {
		bh.log.Warn(ctx, "Failed to store language", "lang", lang, "error", err)
	}
	state, _ := bh.states.GetUserState(ctx, userID)
	state.Lang = string(lang)
	if err := bh.states.SetUserState(ctx, userID, state); err != nil {
		bh.log.Warn(ctx, "Failed to cache language", "error", err)
	}
	bh.answerCallback(ctx, b, callbackID, "")
	bh.editOrSend(ctx, b, chatID, messageID, messages.MainMenuText(lang, bh.price(ctx)), mainMenuKeyboard(lang))
}

func (bh *Handlers) handleMenu(ctx context.Context, b BotAPI, callbackID string, chatID int64, messageID int, userID int64, lang i18n.Lang, data string) {
	switch data {
	case cbMenuMain:
		if err := bh.states.ClearAwaiting(ctx, userID); err != nil {
			bh.log.Warn(ctx, "Failed to clear awaiting state", "error", err)
		}
		bh.answerCallback(ctx, b, callbackID, "")
		bh.editOrSend(ctx, b, chatID, messageID, messages.MainMenuText(lang, bh.price(ctx)), mainMenuKeyboard(lang))
	case cbMenuBalance:
		balance, err := bh.ledger.Balance(ctx, userID)
		if err != nil {
			bh.log.Error(ctx, "Failed to read balance", "error", err)
			bh.answerCallbackAlert(ctx, b, callbackID, plain(messages.ErrorDefault(lang)))
			return
		}
		bh.answerCallback(ctx, b, callbackID, "")
		bh.editOrSend(ctx, b, chatID, messageID, messages.BalanceText(lang, balance, bh.price(ctx)), backKeyboard(lang))
	case cbMenuReferral:
		bh.showReferral(ctx, b, callbackID, chatID, messageID, userID, lang)
	case cbMenuPromo:
		state, _ := bh.states.GetUserState(ctx, userID)
		state.Awaiting = types.AwaitingPromo
		if err := bh.states.SetUserState(ctx, userID, state); err != nil {
			bh.log.Error(ctx, "Failed to set awaiting state", "error", err)
			bh.answerCallbackAlert(ctx, b, callbackID, plain(messages.ErrorDefault(lang)))
			return
		}
		bh.answerCallback(ctx, b, callbackID, "")
		bh.editOrSend(ctx, b, chatID, messageID, messages.PromoPrompt(lang), backKeyboard(lang))
	case cbMenuConvert:
		bh.answerCallback(ctx, b, callbackID, "")
		bh.sendConvertPrompt(ctx, b, chatID, lang, false)
	case cbMenuLanguage:
		bh.answerCallback(ctx, b, callbackID, "")
		bh.editOrSend(ctx, b, chatID, messageID, messages.LanguagePrompt(), languageKeyboard())
	default:
		bh.answerCallbackAlert(ctx, b, callbackID, plain(messages.ErrorDefault(lang)))
	}
}

func (bh *Handlers) showReferral(ctx context.Context, b BotAPI, callbackID string, chatID int64, messageID int, userID int64, lang i18n.Lang) {
	u, err := bh.users.GetUser(ctx, userID)
	if err != nil {
		bh.log.Error(ctx, "Failed to load user", "error", err)
		bh.answerCallbackAlert(ctx, b, callbackID, plain(messages.ErrorDefault(lang)))
		return
	}
	invited, err := bh.users.ReferralCount(ctx, userID)
	if err != nil {
		bh.log.Warn(ctx, "Failed to count referrals", "error", err)
	}
	reward := bh.loadSettings(ctx).ReferralReward
	text := messages.ReferralText(lang, codes.Link(bh.cfg.BotUsername, u.ReferralCode), invited, u.TotalEarned, reward)
	bh.answerCallback(ctx, b, callbackID, "")
	bh.editOrSend(ctx, b, chatID, messageID, text, backKeyboard(lang))
}

// handlePaymentChoice hands the pressed payment button to the batch service.
// The keyboard is removed once a choice is accepted so it cannot be pressed twice.
func (bh *Handlers) handlePaymentChoice(ctx context.Context, b BotAPI, callbackID string, chatID int64, messageID int, userID int64, lang i18n.Lang, data string) {
	method, invoiceID, ok := notifier.ParsePayCallback(data)
	if !ok {
		bh.answerCallbackAlert(ctx, b, callbackID, plain(messages.ErrorDefault(lang)))
		return
	}
	ctx = logger.WithInvoiceID(ctx, invoiceID)

	if err := bh.batches.Choose(ctx, userID, invoiceID, method); err != nil {
		bh.log.Info(ctx, "Payment choice rejected", "method", method, "error", err)
		bh.answerCallbackAlert(ctx, b, callbackID, plain(notifier.ErrorText(lang, err)))
		return
	}
	bh.log.Info(ctx, "Payment method chosen", "method", method)

	if messageID != 0 {
		_, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
			ChatID:      chatID,
			MessageID:   messageID,
			ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
		})
		if err != nil {
			bh.log.Debug(ctx, "Failed to drop payment keyboard", "error", err)
		}
	}
	if method == types.MethodBalance {
		bh.answerCallback(ctx, b, callbackID, "")
		return
	}
	bh.answerCallback(ctx, b, callbackID, plain(messages.InvoiceSent(lang)))
}

func (bh *Handlers) editOrSend(ctx context.Context, b BotAPI, chatID int64, messageID int, text string, markup *models.InlineKeyboardMarkup) {
	if messageID != 0 {
		_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ParseMode:   messages.ParseModeHTML,
			ReplyMarkup: markup,
		})
		if err == nil {
			return
		}
		bh.log.Debug(ctx, "Failed to edit message, sending new one", "error", err)
	}
	bh.sendText(ctx, b, chatID, text, markup)
}

func (bh *Handlers) answerCallback(ctx context.Context, b BotAPI, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		bh.log.Debug(ctx, "Failed to answer callback", "error", err)
	}
}

func (bh *Handlers) answerCallbackAlert(ctx context.Context, b BotAPI, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
	if err != nil {
		bh.log.Debug(ctx, "Failed to answer callback", "error", err)
	}
}
