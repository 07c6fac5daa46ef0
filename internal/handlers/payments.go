package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/batch"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/internal/payment"
	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var errCurrency = errors.New("unexpected currency")

// HandlePreCheckout approves a checkout only while its batch still waits for
// exactly this amount.
func (bh *Handlers) HandlePreCheckout(ctx context.Context, b BotAPI, update *models.Update, userID int64) {
	q := update.PreCheckoutQuery
	if q == nil {
		return
	}
	lang := langFromCtx(ctx)

	err := bh.checkCheckout(ctx, q.InvoicePayload, q.Currency, q.TotalAmount)
	params := &bot.AnswerPreCheckoutQueryParams{PreCheckoutQueryID: q.ID, OK: err == nil}
	if err != nil {
		bh.log.Warn(ctx, "Pre-checkout rejected", "payload", q.InvoicePayload, "error", err)
		params.ErrorMessage = plain(messages.ErrorCheckout(lang))
	}
	if _, answerErr := b.AnswerPreCheckoutQuery(ctx, params); answerErr != nil {
		bh.log.Error(ctx, "Failed to answer pre-checkout", "error", answerErr)
	}
}

func (bh *Handlers) checkCheckout(ctx context.Context, rawPayload, currency string, totalAmount int) error {
	p, err := payment.ParsePayload(rawPayload)
	if err != nil {
		return err
	}
	if !strings.EqualFold(currency, bh.cfg.Currency) {
		return errCurrency
	}
	ctx = logger.WithInvoiceID(ctx, p.InvoiceID)
	bh.log.Debug(ctx, "Pre-checkout", "amount", payment.FromMinor(totalAmount))
	return bh.batches.CheckoutReady(p.InvoiceID, payment.FromMinor(totalAmount))
}

// HandleSuccessfulPayment hands a confirmed provider charge to settlement,
// which reports the outcome to the user itself.
func (bh *Handlers) HandleSuccessfulPayment(ctx context.Context, b BotAPI, update *models.Update, userID int64) {
	msg := update.Message
	if msg == nil || msg.SuccessfulPayment == nil {
		return
	}
	sp := msg.SuccessfulPayment
	lang := langFromCtx(ctx)

	p, err := payment.ParsePayload(sp.InvoicePayload)
	if err != nil {
		bh.log.Error(ctx, "Payment with unreadable payload", "payload", sp.InvoicePayload, "charge_id", sp.TelegramPaymentChargeID, "error", err)
		bh.sendText(ctx, b, msg.Chat.ID, messages.ErrorInvoiceNotFound(lang), nil)
		return
	}
	ctx = logger.WithInvoiceID(ctx, p.InvoiceID)
	bh.log.Info(ctx, "Payment received", "amount", payment.FromMinor(sp.TotalAmount), "charge_id", sp.TelegramPaymentChargeID)

	err = bh.batches.Settle(ctx, batch.Settlement{
		InvoiceID: p.InvoiceID,
		UserID:    userID,
		Origin:    batch.Origin{ChatID: msg.Chat.ID, Lang: string(lang)},
		Charge: types.Charge{
			Amount:                payment.FromMinor(sp.TotalAmount),
			TelegramPaymentCharge: sp.TelegramPaymentChargeID,
			ProviderPaymentCharge: sp.ProviderPaymentChargeID,
		},
	})
	if err != nil {
		bh.log.Warn(ctx, "Settlement finished with error", "error", err)
	}
}
