package store

import (
	"context"
	"errors"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) CreatePayment(ctx context.Context, p types.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	status := p.Status
	if status == "" {
		status = types.PaymentPending
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO payments (invoice_id, user_id, chat_id, file_count, total_price, amount, balance_captured, method, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (invoice_id) DO NOTHING
`, p.InvoiceID, p.UserID, p.ChatID, p.FileCount, p.TotalPrice, p.Amount, p.BalanceCaptured, string(p.Method), string(status))
	return err
}

func (s *PostgresStore) GetPayment(ctx context.Context, invoiceID string) (*types.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		p              types.Payment
		method         string
		status         string
		telegramCharge *string
		providerCharge *string
	)
	err := s.pool.QueryRow(ctx, `
SELECT invoice_id, user_id, chat_id, file_count, total_price, amount, balance_captured, method, status,
       telegram_payment_charge_id, provider_payment_charge_id, created_at, paid_at, closed_at
FROM payments
WHERE invoice_id = $1
`, invoiceID).Scan(&p.InvoiceID, &p.UserID, &p.ChatID, &p.FileCount, &p.TotalPrice, &p.Amount, &p.BalanceCaptured,
		&method, &status, &telegramCharge, &providerCharge, &p.CreatedAt, &p.PaidAt, &p.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Method = types.PaymentMethod(method)
	p.Status = types.PaymentStatus(status)
	if telegramCharge != nil {
		p.TelegramPaymentCharge = *telegramCharge
	}
	if providerCharge != nil {
		p.ProviderPaymentCharge = *providerCharge
	}
	return &p, nil
}

func (s *PostgresStore) SetPaymentRoute(ctx context.Context, invoiceID string, method types.PaymentMethod, amount, captured int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
UPDATE payments
SET method = $2, amount = $3, balance_captured = $4
WHERE invoice_id = $1 AND status = 'pending'
`, invoiceID, string(method), amount, captured)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// MarkPaid is the idempotency guard for settlements: only one caller can move
// an invoice out of pending or expired.
func (s *PostgresStore) MarkPaid(ctx context.Context, invoiceID string, charge types.Charge) (types.MarkPaidResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
UPDATE payments
SET status = 'paid',
    paid_at = NOW(),
    charged_amount = $2,
    telegram_payment_charge_id = NULLIF($3, ''),
    provider_payment_charge_id = NULLIF($4, '')
WHERE invoice_id = $1 AND status IN ('pending', 'expired')
`, invoiceID, charge.Amount, strings.TrimSpace(charge.TelegramPaymentCharge), strings.TrimSpace(charge.ProviderPaymentCharge))
	if err != nil {
		if isUniqueViolation(err) {
			return types.MarkPaidAlreadyPaid, nil
		}
		return types.MarkPaidNotFound, err
	}
	if tag.RowsAffected() > 0 {
		return types.MarkPaidApplied, nil
	}

	var status string
	err = s.pool.QueryRow(ctx, `SELECT status FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.MarkPaidNotFound, nil
	}
	if err != nil {
		return types.MarkPaidNotFound, err
	}
	if types.PaymentStatus(status) == types.PaymentPaid {
		return types.MarkPaidAlreadyPaid, nil
	}
	return types.MarkPaidNotFound, nil
}

func (s *PostgresStore) ClosePayment(ctx context.Context, invoiceID string, status types.PaymentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
UPDATE payments
SET status = $2, closed_at = NOW()
WHERE invoice_id = $1 AND status = 'pending'
`, invoiceID, string(status))
	return err
}
