// Package notifier delivers batch events and converted files to Telegram chats.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/batch"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PayCallbackPrefix starts the callback data of every payment button.
const PayCallbackPrefix = "pay:"

// Sender is the part of *bot.Bot the notifier needs.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

type Telegram struct {
	sender  Sender
	adminID int64
	log     *logger.Logger
}

func NewTelegram(sender Sender, adminID int64, log *logger.Logger) *Telegram {
	if log == nil {
		log = logger.NewNop()
	}
	return &Telegram{sender: sender, adminID: adminID, log: log}
}

// PayCallback builds the callback data of a payment choice button.
func PayCallback(method types.PaymentMethod, invoiceID string) string {
	return PayCallbackPrefix + string(method) + ":" + invoiceID
}

// ParsePayCallback is the inverse of PayCallback.
func ParsePayCallback(data string) (types.PaymentMethod, string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(data), PayCallbackPrefix)
	if !ok {
		return "", "", false
	}
	method, invoiceID, ok := strings.Cut(rest, ":")
	if !ok || invoiceID == "" {
		return "", "", false
	}
	switch m := types.PaymentMethod(method); m {
	case types.MethodBalance, types.MethodPartial, types.MethodExternal:
		return m, invoiceID, true
	default:
		return "", "", false
	}
}

func (t *Telegram) BatchProgress(ctx context.Context, origin batch.Origin, snap batch.Snapshot) {
	t.send(ctx, origin.ChatID, messages.BatchProgress(i18n.Parse(origin.Lang), snap.FileCount, snap.TotalPrice), nil)
}

func (t *Telegram) PaymentOptions(ctx context.Context, b batch.Batch, d batch.Decision) {
	lang := i18n.Parse(b.Origin.Lang)
	t.send(ctx, b.Origin.ChatID,
		messages.PaymentOptions(lang, len(b.Files), d.Total, d.Balance),
		PaymentKeyboard(lang, b.InvoiceID, d))
}

// PaymentKeyboard has one button per offered method.
func PaymentKeyboard(lang i18n.Lang, invoiceID string, d batch.Decision) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(d.Choices))
	for _, m := range d.Choices {
		var text string
		switch m {
		case types.MethodBalance:
			text = messages.PayBtnBalance(lang, d.Total)
		case types.MethodPartial:
			text = messages.PayBtnPartial(lang, d.Balance, d.Remainder)
		case types.MethodExternal:
			text = messages.PayBtnExternal(lang, d.Total)
		default:
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: text, CallbackData: PayCallback(m, invoiceID)},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (t *Telegram) BatchSettled(ctx context.Context, b batch.Batch, delivered []string, failures []batch.FileError) {
	lang := i18n.Parse(b.Origin.Lang)
	var sb strings.Builder
	sb.WriteString(messages.BatchDone(lang, len(delivered), len(b.Files)))
	for _, f := range failures {
		sb.WriteString("\n")
		sb.WriteString(messages.FileFailed(lang, f.Name))
	}
	t.send(ctx, b.Origin.ChatID, sb.String(), nil)
}

func (t *Telegram) BatchAbandoned(ctx context.Context, b batch.Batch) {
	t.send(ctx, b.Origin.ChatID, messages.BatchAbandoned(i18n.Parse(b.Origin.Lang), len(b.Files), b.Captured), nil)
}

func (t *Telegram) Rejected(ctx context.Context, origin batch.Origin, err error) {
	if origin.ChatID == 0 || err == nil {
		return
	}
	t.send(ctx, origin.ChatID, ErrorText(i18n.Parse(origin.Lang), err), nil)
}

// ErrorText maps batch and store errors to a message for the user.
func ErrorText(lang i18n.Lang, err error) string {
	switch {
	case errors.Is(err, batch.ErrSessionExpired), errors.Is(err, batch.ErrBatchNotFound):
		return messages.ErrorSessionExpired(lang)
	case errors.Is(err, batch.ErrAlreadyProcessed):
		return messages.ErrorAlreadyProcessed(lang)
	case errors.Is(err, batch.ErrInsufficientBalance):
		return messages.ErrorInsufficientBalance(lang)
	case errors.Is(err, batch.ErrChoiceUnavailable):
		return messages.ErrorChoiceUnavailable(lang)
	case errors.Is(err, batch.ErrGateway):
		return messages.ErrorPaymentUnavailable(lang)
	case errors.Is(err, batch.ErrReconciliation):
		return messages.ErrorReconciliation(lang)
	case errors.Is(err, batch.ErrInvoiceNotFound):
		return messages.ErrorInvoiceNotFound(lang)
	case errors.Is(err, types.ErrPromoNotFound):
		return messages.PromoNotFound(lang)
	case errors.Is(err, types.ErrPromoUsed):
		return messages.PromoAlreadyUsed(lang)
	case errors.Is(err, types.ErrPromoExhausted):
		return messages.PromoExhausted(lang)
	default:
		return messages.ErrorDefault(lang)
	}
}

func (t *Telegram) Operator(ctx context.Context, text string) {
	t.log.Warn(ctx, "Operator notice", "text", text)
	if t.adminID == 0 {
		return
	}
	t.send(ctx, t.adminID, "⚠️ <b>Operator</b>\n"+messages.Escape(text), nil)
}

// DeliverFile uploads a converted file to the batch chat.
func (t *Telegram) DeliverFile(ctx context.Context, origin batch.Origin, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if strings.TrimSpace(name) == "" {
		name = "result.txt"
	}
	_, err = t.sender.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: origin.ChatID,
		Document: &models.InputFileUpload{
			Filename: name,
			Data:     file,
		},
		Caption: name,
	})
	if err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := t.sender.SendMessage(ctx, params); err != nil {
		t.log.Warn(ctx, "Failed to send message", "chat_id", chatID, "error", err)
	}
}
