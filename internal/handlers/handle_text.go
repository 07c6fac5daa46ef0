package handlers

import (
	"context"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/codes"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/internal/notifier"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot/models"
)

// HandleText treats free text as a promo code when one was asked for, and
// otherwise reminds the user what the bot accepts.
func (bh *Handlers) HandleText(ctx context.Context, b BotAPI, update *models.Update, userID int64) {
	if update == nil || update.Message == nil {
		return
	}
	lang := langFromCtx(ctx)
	chatID := update.Message.Chat.ID

	state, err := bh.states.GetUserState(ctx, userID)
	if err != nil {
		bh.log.Warn(ctx, "Failed to read user state", "error", err)
	}
	if state.Awaiting != types.AwaitingPromo {
		bh.sendText(ctx, b, chatID, messages.SendFilePrompt(lang, bh.price(ctx)), mainMenuKeyboard(lang))
		return
	}

	if err := bh.states.ClearAwaiting(ctx, userID); err != nil {
		bh.log.Warn(ctx, "Failed to clear awaiting state", "error", err)
	}

	code, ok := codes.NormalizePromo(strings.TrimSpace(update.Message.Text))
	if !ok {
		bh.sendText(ctx, b, chatID, messages.PromoNotFound(lang), backKeyboard(lang))
		return
	}

	reward, balance, err := bh.promos.RedeemPromo(ctx, userID, code)
	if err != nil {
		bh.log.Info(ctx, "Promo rejected", "code", code, "error", err)
		bh.sendText(ctx, b, chatID, notifier.ErrorText(lang, err), backKeyboard(lang))
		return
	}
	bh.log.Info(ctx, "Promo redeemed", "code", code, "reward", reward)
	bh.sendText(ctx, b, chatID, messages.PromoRedeemed(lang, reward, balance), backKeyboard(lang))
}
