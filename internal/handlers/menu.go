package handlers

import (
	"context"

	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/internal/utils"
	"github.com/go-telegram/bot/models"
)

const (
	cbLangPrefix   = "lang:"
	cbMenuPrefix   = "menu:"
	cbMenuMain     = "menu:main"
	cbMenuBalance  = "menu:balance"
	cbMenuReferral = "menu:referral"
	cbMenuPromo    = "menu:promo"
	cbMenuConvert  = "menu:convert"
	cbMenuLanguage = "menu:language"
	cbOfferConfirm = "offer:confirm"
)

func languageKeyboard() *models.InlineKeyboardMarkup {
	buttons := make([]utils.Button, 0, len(i18n.All()))
	for _, l := range i18n.All() {
		buttons = append(buttons, utils.Button{Text: messages.LanguageName(l), CallbackData: cbLangPrefix + string(l)})
	}
	kb := utils.BuildInlineKeyboard(buttons, 3)
	return &kb
}

func mainMenuKeyboard(lang i18n.Lang) *models.InlineKeyboardMarkup {
	kb := utils.BuildInlineKeyboard([]utils.Button{
		{Text: messages.MenuBtnConvert(lang), CallbackData: cbMenuConvert},
		{Text: messages.MenuBtnBalance(lang), CallbackData: cbMenuBalance},
		{Text: messages.MenuBtnPromo(lang), CallbackData: cbMenuPromo},
		{Text: messages.MenuBtnReferral(lang), CallbackData: cbMenuReferral},
		{Text: messages.MenuBtnLanguage(lang), CallbackData: cbMenuLanguage},
	}, 1)
	return &kb
}

func backKeyboard(lang i18n.Lang) *models.InlineKeyboardMarkup {
	kb := utils.BuildInlineKeyboard([]utils.Button{
		{Text: messages.MenuBtnBack(lang), CallbackData: cbMenuMain},
	}, 1)
	return &kb
}

func offerKeyboard(lang i18n.Lang, link string) *models.InlineKeyboardMarkup {
	kb := utils.BuildInlineKeyboard([]utils.Button{
		{Text: messages.OfferBtnView(lang), URL: link},
		{Text: messages.OfferBtnConfirm(lang), CallbackData: cbOfferConfirm},
	}, 1)
	return &kb
}

func (bh *Handlers) sendMainMenu(ctx context.Context, b BotAPI, chatID int64, lang i18n.Lang) {
	bh.sendText(ctx, b, chatID, messages.MainMenuText(lang, bh.price(ctx)), mainMenuKeyboard(lang))
}

func (bh *Handlers) sendLanguagePicker(ctx context.Context, b BotAPI, chatID int64) {
	bh.sendText(ctx, b, chatID, messages.LanguagePrompt(), languageKeyboard())
}

// sendConvertPrompt asks for files, showing the public offer first when one
// is configured.
func (bh *Handlers) sendConvertPrompt(ctx context.Context, b BotAPI, chatID int64, lang i18n.Lang, confirmed bool) {
	if !confirmed {
		if link := offerLink(bh.loadSettings(ctx), lang); link != "" {
			bh.sendText(ctx, b, chatID, messages.OfferText(lang), offerKeyboard(lang, link))
			return
		}
	}
	bh.sendText(ctx, b, chatID, messages.SendFilePrompt(lang, bh.price(ctx)), nil)
}
