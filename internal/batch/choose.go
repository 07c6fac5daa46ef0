package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
)

// Choose resolves the user's payment method for an awaiting batch.
// Errors are meant for the user: ErrSessionExpired, ErrAlreadyProcessed,
// ErrInsufficientBalance, ErrChoiceUnavailable or ErrGateway.
func (s *Service) Choose(ctx context.Context, userID int64, invoiceID string, method types.PaymentMethod) error {
	ctx = logger.WithInvoiceID(logger.WithUserID(ctx, userID), invoiceID)

	b, err := s.acc.Claim(invoiceID, userID, method)
	switch {
	case errors.Is(err, ErrBatchNotFound):
		return ErrSessionExpired
	case err != nil:
		return err
	}

	switch method {
	case types.MethodBalance:
		return s.payFromBalance(ctx, b)
	case types.MethodPartial:
		return s.payPartial(ctx, b)
	case types.MethodExternal:
		return s.payExternal(ctx, b)
	default:
		s.acc.Release(invoiceID)
		return ErrChoiceUnavailable
	}
}

// payFromBalance debits the whole total and settles without the provider.
func (s *Service) payFromBalance(ctx context.Context, b Batch) error {
	if _, err := s.ledger.Debit(ctx, b.Key.UserID, b.TotalPrice, types.ReasonBatchDebit, b.InvoiceID); err != nil {
		s.acc.Release(b.InvoiceID)
		if errors.Is(err, types.ErrInsufficientBalance) {
			return ErrInsufficientBalance
		}
		return fmt.Errorf("debit balance: %w", err)
	}
	if err := s.acc.SetCapture(b.InvoiceID, b.TotalPrice, 0); err != nil {
		b.Captured = b.TotalPrice
		s.refund(ctx, b)
		return ErrSessionExpired
	}
	if err := s.payments.SetPaymentRoute(ctx, b.InvoiceID, types.MethodBalance, 0, b.TotalPrice); err != nil {
		s.log.Warn(ctx, "Failed to store payment route", "error", err)
	}

	s.log.Info(ctx, "Batch paid from balance", "amount", b.TotalPrice)
	err := s.Settle(ctx, Settlement{
		InvoiceID: b.InvoiceID,
		UserID:    b.Key.UserID,
		Origin:    b.Origin,
		Charge:    types.Charge{TelegramPaymentCharge: "balance:" + b.InvoiceID},
	})
	if err != nil {
		// Settle has already told the user.
		s.log.Warn(ctx, "Balance settlement did not deliver", "error", err)
	}
	return nil
}

// payPartial re-routes on the current balance, captures it and invoices the rest.
func (s *Service) payPartial(ctx context.Context, b Batch) error {
	balance, err := s.ledger.Balance(ctx, b.Key.UserID)
	if err != nil {
		s.acc.Release(b.InvoiceID)
		return fmt.Errorf("read balance: %w", err)
	}
	d := Route(balance, b.TotalPrice, s.minExternal(ctx))
	if !d.Offers(types.MethodPartial) {
		s.acc.Release(b.InvoiceID)
		return ErrChoiceUnavailable
	}

	captured := d.Balance
	if _, err := s.ledger.Debit(ctx, b.Key.UserID, captured, types.ReasonBatchDebit, b.InvoiceID); err != nil {
		s.acc.Release(b.InvoiceID)
		if errors.Is(err, types.ErrInsufficientBalance) {
			return ErrInsufficientBalance
		}
		return fmt.Errorf("debit balance: %w", err)
	}
	b.Captured = captured
	b.External = d.Remainder
	if err := s.acc.SetCapture(b.InvoiceID, b.Captured, b.External); err != nil {
		s.refund(ctx, b)
		return ErrSessionExpired
	}
	return s.issueInvoice(ctx, b)
}

func (s *Service) payExternal(ctx context.Context, b Batch) error {
	b.Captured = 0
	b.External = b.TotalPrice
	if err := s.acc.SetCapture(b.InvoiceID, 0, b.External); err != nil {
		return ErrSessionExpired
	}
	return s.issueInvoice(ctx, b)
}

// issueInvoice asks the provider for b.External. Failure ends the batch.
func (s *Service) issueInvoice(ctx context.Context, b Batch) error {
	if err := s.payments.SetPaymentRoute(ctx, b.InvoiceID, b.Method, b.External, b.Captured); err != nil {
		s.log.Warn(ctx, "Failed to store payment route", "error", err)
	}

	err := s.gateway.CreateInvoice(ctx, Invoice{
		InvoiceID:  b.InvoiceID,
		Origin:     b.Origin,
		Amount:     b.External,
		TotalPrice: b.TotalPrice,
		FileCount:  len(b.Files),
	})
	if err != nil {
		s.log.Error(ctx, "Failed to create invoice", "amount", b.External, "error", err)
		s.teardown(ctx, b.InvoiceID, types.PaymentFailed)
		if errors.Is(err, ErrGateway) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}

	s.log.Info(ctx, "Invoice issued", "method", b.Method, "amount", b.External, "captured", b.Captured)
	return nil
}
