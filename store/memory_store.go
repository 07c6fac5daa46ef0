package store

import (
	"context"
	"sync"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/types"
)

// LedgerEntry is one balance movement recorded by MemoryStore.
type LedgerEntry struct {
	UserID int64
	Delta  int64
	Reason string
	Ref    string
}

// MemoryStore implements types.Ledger and types.PaymentStore in memory.
// It backs tests and has the same transition rules as PostgresStore.
type MemoryStore struct {
	mu       sync.RWMutex
	price    int64
	minExt   int64
	balances map[int64]int64
	payments map[string]*types.Payment
	entries  []LedgerEntry
	now      func() time.Time
}

func NewMemoryStore(pricePerFile int64) *MemoryStore {
	return &MemoryStore{
		price:    pricePerFile,
		balances: make(map[int64]int64),
		payments: make(map[string]*types.Payment),
		now:      time.Now,
	}
}

func (s *MemoryStore) SetBalance(userID, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = amount
}

func (s *MemoryStore) Entries() []LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LedgerEntry(nil), s.entries...)
}

func (s *MemoryStore) PricePerFile(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price, nil
}

// SetMinExternalCharge overrides the provider minimum; 0 leaves it unset.
func (s *MemoryStore) SetMinExternalCharge(amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minExt = amount
}

func (s *MemoryStore) MinExternalCharge(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minExt, nil
}

func (s *MemoryStore) Balance(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[userID], nil
}

func (s *MemoryStore) Debit(ctx context.Context, userID, amount int64, reason, ref string) (int64, error) {
	if amount <= 0 {
		return 0, types.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balances[userID]
	if balance < amount {
		return balance, types.ErrInsufficientBalance
	}
	s.balances[userID] = balance - amount
	s.entries = append(s.entries, LedgerEntry{UserID: userID, Delta: -amount, Reason: reason, Ref: ref})
	return s.balances[userID], nil
}

func (s *MemoryStore) Credit(ctx context.Context, userID, amount int64, reason, ref string) (int64, error) {
	if amount <= 0 {
		return 0, types.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[userID] += amount
	s.entries = append(s.entries, LedgerEntry{UserID: userID, Delta: amount, Reason: reason, Ref: ref})
	return s.balances[userID], nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, p types.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Status == "" {
		p.Status = types.PaymentPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.payments[p.InvoiceID] = &p
	return nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, invoiceID string) (*types.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[invoiceID]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SetPaymentRoute(ctx context.Context, invoiceID string, method types.PaymentMethod, amount, captured int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[invoiceID]
	if !ok {
		return types.ErrNotFound
	}
	p.Method = method
	p.Amount = amount
	p.BalanceCaptured = captured
	return nil
}

func (s *MemoryStore) MarkPaid(ctx context.Context, invoiceID string, charge types.Charge) (types.MarkPaidResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[invoiceID]
	if !ok {
		return types.MarkPaidNotFound, nil
	}
	switch p.Status {
	case types.PaymentPaid:
		return types.MarkPaidAlreadyPaid, nil
	case types.PaymentPending, types.PaymentExpired:
	default:
		return types.MarkPaidNotFound, nil
	}
	now := s.now()
	p.Status = types.PaymentPaid
	p.PaidAt = &now
	p.TelegramPaymentCharge = charge.TelegramPaymentCharge
	p.ProviderPaymentCharge = charge.ProviderPaymentCharge
	return types.MarkPaidApplied, nil
}

func (s *MemoryStore) ClosePayment(ctx context.Context, invoiceID string, status types.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[invoiceID]
	if !ok || p.Status != types.PaymentPending {
		return nil
	}
	now := s.now()
	p.Status = status
	p.ClosedAt = &now
	return nil
}
