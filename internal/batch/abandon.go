package batch

import (
	"context"

	"github.com/BatmanBruc/docx-quiz-bot/types"
)

// abandon discards an unpaid batch once its payment window is over. It is a
// no-op when settlement already took the batch.
func (s *Service) abandon(ctx context.Context, invoiceID string) {
	b, _, err := s.acc.Take(invoiceID)
	if err != nil {
		s.log.Debug(ctx, "Abandonment found no batch")
		return
	}

	s.refund(ctx, b)
	s.artifacts.Remove(b.Paths()...)
	if err := s.payments.ClosePayment(ctx, invoiceID, types.PaymentExpired); err != nil {
		s.log.Error(ctx, "Failed to expire payment", "error", err)
	}

	s.log.Info(ctx, "Batch abandoned", "files", len(b.Files), "total", b.TotalPrice, "captured", b.Captured)
	s.notifier.BatchAbandoned(ctx, b)
}
