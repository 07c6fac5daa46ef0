package types

import (
	"context"
	"time"
)

// Payment is the persisted record of one batch invoice.
type Payment struct {
	InvoiceID             string
	UserID                int64
	ChatID                int64
	FileCount             int
	TotalPrice            int64
	Amount                int64
	BalanceCaptured       int64
	Method                PaymentMethod
	Status                PaymentStatus
	TelegramPaymentCharge string
	ProviderPaymentCharge string
	CreatedAt             time.Time
	PaidAt                *time.Time
	ClosedAt              *time.Time
}

type Charge struct {
	Amount                int64
	TelegramPaymentCharge string
	ProviderPaymentCharge string
}

// Ledger owns per-user balances. Debit and Credit are atomic per account.
type Ledger interface {
	PricePerFile(ctx context.Context) (int64, error)
	// MinExternalCharge is the smallest amount worth sending to the payment
	// provider; 0 means unset.
	MinExternalCharge(ctx context.Context) (int64, error)
	Balance(ctx context.Context, userID int64) (int64, error)
	Debit(ctx context.Context, userID, amount int64, reason, ref string) (remaining int64, err error)
	Credit(ctx context.Context, userID, amount int64, reason, ref string) (balance int64, err error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, invoiceID string) (*Payment, error)
	SetPaymentRoute(ctx context.Context, invoiceID string, method PaymentMethod, amount, captured int64) error
	// MarkPaid moves a pending or expired invoice to paid.
	MarkPaid(ctx context.Context, invoiceID string, charge Charge) (MarkPaidResult, error)
	// ClosePayment moves a pending invoice to failed or expired. No-op otherwise.
	ClosePayment(ctx context.Context, invoiceID string, status PaymentStatus) error
}
