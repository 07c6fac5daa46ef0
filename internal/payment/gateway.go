package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/batch"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// minorUnits converts so'm to the tiyin amounts Telegram expects.
const minorUnits = 100

var ErrBadPayload = errors.New("invalid invoice payload")

// Payload is the invoice_payload attached to every batch invoice.
type Payload struct {
	InvoiceID string `json:"invoice_id"`
	IsGroup   bool   `json:"is_group"`
	Count     int    `json:"count"`
}

func EncodePayload(p Payload) string {
	data, _ := json.Marshal(p)
	return string(data)
}

func ParsePayload(s string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.InvoiceID == "" {
		return Payload{}, ErrBadPayload
	}
	return p, nil
}

// ToMinor and FromMinor translate between so'm and provider amounts.
func ToMinor(amount int64) int {
	return int(amount * minorUnits)
}

func FromMinor(total int) int64 {
	return int64(total) / minorUnits
}

// InvoiceSender is the part of *bot.Bot used to issue invoices.
type InvoiceSender interface {
	SendInvoice(ctx context.Context, params *bot.SendInvoiceParams) (*models.Message, error)
}

// TelegramGateway issues batch invoices through Telegram Payments.
type TelegramGateway struct {
	sender        InvoiceSender
	providerToken string
	currency      string
}

func NewTelegramGateway(sender InvoiceSender, providerToken, currency string) *TelegramGateway {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "UZS"
	}
	return &TelegramGateway{
		sender:        sender,
		providerToken: strings.TrimSpace(providerToken),
		currency:      currency,
	}
}

func (g *TelegramGateway) CreateInvoice(ctx context.Context, inv batch.Invoice) error {
	if g.providerToken == "" {
		return fmt.Errorf("%w: provider token is not configured", batch.ErrGateway)
	}
	if inv.Amount <= 0 {
		return fmt.Errorf("%w: invoice amount %d", batch.ErrGateway, inv.Amount)
	}

	lang := i18n.Parse(inv.Origin.Lang)
	_, err := g.sender.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:      inv.Origin.ChatID,
		Title:       messages.InvoiceTitle(lang),
		Description: messages.InvoiceDescription(lang, inv.FileCount, inv.TotalPrice-inv.Amount),
		Payload: EncodePayload(Payload{
			InvoiceID: inv.InvoiceID,
			IsGroup:   true,
			Count:     inv.FileCount,
		}),
		ProviderToken: g.providerToken,
		Currency:      g.currency,
		Prices: []models.LabeledPrice{
			{Label: messages.InvoiceLabel(lang, inv.FileCount), Amount: ToMinor(inv.Amount)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", batch.ErrGateway, err)
	}
	return nil
}
