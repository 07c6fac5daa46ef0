package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
)

// Settlement is a confirmed payment for an invoice.
type Settlement struct {
	InvoiceID string
	UserID    int64
	// Origin is used when the batch is no longer held.
	Origin Origin
	Charge types.Charge
}

// Settle applies a payment confirmation exactly once per invoice, then
// converts and delivers the batch. Every outcome is reported to the user;
// the returned error is for logging.
func (s *Service) Settle(ctx context.Context, st Settlement) error {
	ctx = logger.WithInvoiceID(logger.WithUserID(ctx, st.UserID), st.InvoiceID)

	res, err := s.payments.MarkPaid(ctx, st.InvoiceID, st.Charge)
	if err != nil {
		s.log.Error(ctx, "Failed to mark invoice paid", "error", err)
		s.notifier.Operator(ctx, fmt.Sprintf("payment for invoice %s (user %d, %d) could not be recorded: %v",
			st.InvoiceID, st.UserID, st.Charge.Amount, err))
		s.notifier.Rejected(ctx, st.Origin, err)
		return fmt.Errorf("mark paid: %w", err)
	}
	switch res {
	case types.MarkPaidAlreadyPaid:
		s.log.Info(ctx, "Duplicate settlement ignored")
		s.notifier.Rejected(ctx, st.Origin, ErrAlreadyProcessed)
		return ErrAlreadyProcessed
	case types.MarkPaidNotFound:
		s.log.Warn(ctx, "Settlement for unknown invoice")
		s.notifier.Rejected(ctx, st.Origin, ErrInvoiceNotFound)
		return ErrInvoiceNotFound
	}

	b, abandon, err := s.acc.Take(st.InvoiceID)
	if err != nil {
		s.settleExpired(ctx, st)
		return ErrSessionExpired
	}
	if st.UserID != 0 && st.UserID != b.Key.UserID {
		s.payerMismatch(ctx, st.InvoiceID, st.UserID, b.Key.UserID)
	}

	s.reconcileBalance(ctx, b, st.Charge.Amount)
	abandon.Cancel()

	delivered, failures := s.convertAll(ctx, b)
	s.artifacts.Remove(b.Paths()...)

	s.log.Info(ctx, "Batch settled",
		"files", len(b.Files),
		"delivered", len(delivered),
		"failed", len(failures),
		"charged", st.Charge.Amount,
		"captured", b.Captured,
	)
	s.notifier.BatchSettled(ctx, b, delivered, failures)
	return nil
}

// payerMismatch reports a payment made by someone other than the invoice
// owner. Balance operations and delivery stay with the owner.
func (s *Service) payerMismatch(ctx context.Context, invoiceID string, payer, owner int64) {
	s.log.Warn(ctx, "Invoice paid by another user", "payer_id", payer, "owner_id", owner)
	s.notifier.Operator(ctx, fmt.Sprintf("invoice %s of user %d was paid by user %d; delivered to the owner",
		invoiceID, owner, payer))
}

// settleExpired handles money that arrived after the batch was discarded:
// the charge goes to the invoice owner's balance and the operator is told.
func (s *Service) settleExpired(ctx context.Context, st Settlement) {
	s.log.Warn(ctx, "Settlement after batch expiry", "charged", st.Charge.Amount)
	owner := st.UserID
	if p, err := s.payments.GetPayment(ctx, st.InvoiceID); err != nil {
		s.log.Warn(ctx, "Failed to read expired payment", "error", err)
	} else if p.UserID != 0 && p.UserID != st.UserID {
		s.payerMismatch(ctx, st.InvoiceID, st.UserID, p.UserID)
		owner = p.UserID
	}

	note := "nothing to credit"
	if st.Charge.Amount > 0 {
		if _, err := s.ledger.Credit(ctx, owner, st.Charge.Amount, types.ReasonExpiredPayment, st.InvoiceID); err != nil {
			s.log.Error(ctx, "Failed to credit expired payment", "error", err)
			note = fmt.Sprintf("credit failed: %v", err)
		} else {
			note = fmt.Sprintf("%d credited to balance", st.Charge.Amount)
		}
	}
	s.notifier.Rejected(ctx, st.Origin, ErrSessionExpired)
	s.notifier.Operator(ctx, fmt.Sprintf("invoice %s of user %d was paid after its files expired; %s",
		st.InvoiceID, owner, note))
}

// reconcileBalance collects whatever part of the total neither the provider
// charge nor the captured balance covered, and returns any overcharge.
func (s *Service) reconcileBalance(ctx context.Context, b Batch, charged int64) {
	outstanding := b.TotalPrice - charged - b.Captured
	switch {
	case outstanding > 0:
		_, err := s.ledger.Debit(ctx, b.Key.UserID, outstanding, types.ReasonSettleDebit, b.InvoiceID)
		if err == nil {
			return
		}
		s.log.Error(ctx, "Reconciliation debit failed", "outstanding", outstanding, "error", err)
		s.notifier.Operator(ctx, fmt.Sprintf("invoice %s of user %d is short by %d after settlement: %v",
			b.InvoiceID, b.Key.UserID, outstanding, err))
		s.notifier.Rejected(ctx, b.Origin, fmt.Errorf("%w: %v", ErrReconciliation, err))
	case outstanding < 0:
		if _, err := s.ledger.Credit(ctx, b.Key.UserID, -outstanding, types.ReasonOvercharge, b.InvoiceID); err != nil {
			s.log.Error(ctx, "Failed to credit overcharge", "amount", -outstanding, "error", err)
			s.notifier.Operator(ctx, fmt.Sprintf("invoice %s of user %d was overcharged by %d: %v",
				b.InvoiceID, b.Key.UserID, -outstanding, err))
		}
	}
}

// convertAll converts and delivers each file on its own; one failure does not
// stop the rest.
func (s *Service) convertAll(ctx context.Context, b Batch) ([]string, []FileError) {
	var (
		delivered []string
		failures  []FileError
	)
	for _, f := range b.Files {
		name := resultName(f.Name)
		if err := s.convertOne(ctx, b.Origin, f, name); err != nil {
			s.log.Warn(ctx, "File conversion failed", "file", f.Name, "error", err)
			failures = append(failures, FileError{Name: f.Name, Err: err})
			continue
		}
		delivered = append(delivered, name)
	}
	return delivered, failures
}

func (s *Service) convertOne(ctx context.Context, origin Origin, f File, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("convert %s: panic: %v", f.Name, r)
		}
	}()

	out, err := s.converter.Convert(ctx, f.Path)
	if err != nil {
		return err
	}
	defer s.artifacts.Remove(out)

	if err := s.deliverer.DeliverFile(ctx, origin, out, name); err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	return nil
}

func resultName(original string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." {
		base = "result"
	}
	return base + ".txt"
}
