package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/internal/clock"
	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/google/uuid"
)

type Converter interface {
	Convert(ctx context.Context, srcPath string) (string, error)
}

// Invoice is what the payment provider is asked to charge.
type Invoice struct {
	InvoiceID  string
	Origin     Origin
	Amount     int64
	TotalPrice int64
	FileCount  int
}

type Gateway interface {
	CreateInvoice(ctx context.Context, inv Invoice) error
}

type FileError struct {
	Name string
	Err  error
}

// Notifier receives batch lifecycle events for the user and operator.
type Notifier interface {
	BatchProgress(ctx context.Context, origin Origin, snap Snapshot)
	PaymentOptions(ctx context.Context, b Batch, d Decision)
	BatchSettled(ctx context.Context, b Batch, delivered []string, failures []FileError)
	BatchAbandoned(ctx context.Context, b Batch)
	// Rejected reports a distinguishable failure such as ErrAlreadyProcessed.
	Rejected(ctx context.Context, origin Origin, err error)
	Operator(ctx context.Context, text string)
}

type Deliverer interface {
	DeliverFile(ctx context.Context, origin Origin, path, name string) error
}

type ArtifactStore interface {
	Remove(paths ...string)
}

type Config struct {
	Debounce          time.Duration
	AbandonAfter      time.Duration
	MinExternalCharge int64
}

type Deps struct {
	Ledger    types.Ledger
	Payments  types.PaymentStore
	Converter Converter
	Gateway   Gateway
	Notifier  Notifier
	Deliverer Deliverer
	Artifacts ArtifactStore
	Clock     clock.Clock
	Logger    *logger.Logger
	// NewInvoiceID defaults to uuid.NewString.
	NewInvoiceID func() string
}

type Service struct {
	cfg       Config
	ledger    types.Ledger
	payments  types.PaymentStore
	converter Converter
	gateway   Gateway
	notifier  Notifier
	deliverer Deliverer
	artifacts ArtifactStore
	clock     clock.Clock
	log       *logger.Logger
	newID     func() string

	acc      *Accumulator
	debounce *Debouncer

	ctx    context.Context
	cancel context.CancelFunc
}

func NewService(cfg Config, deps Deps) *Service {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 3 * time.Second
	}
	if cfg.AbandonAfter <= 0 {
		cfg.AbandonAfter = 30 * time.Minute
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.NewInvoiceID == nil {
		deps.NewInvoiceID = uuid.NewString
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		cfg:       cfg,
		ledger:    deps.Ledger,
		payments:  deps.Payments,
		converter: deps.Converter,
		gateway:   deps.Gateway,
		notifier:  deps.Notifier,
		deliverer: deps.Deliverer,
		artifacts: deps.Artifacts,
		clock:     deps.Clock,
		log:       deps.Logger,
		newID:     deps.NewInvoiceID,
		acc:       NewAccumulator(deps.Clock),
		debounce:  NewDebouncer(deps.Clock),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Stop disarms every timer. Batches still in memory are dropped with the process.
func (s *Service) Stop() {
	s.cancel()
	s.debounce.CancelAll()
	s.acc.CancelTimers()
}

// AddFile prices f and appends it to the batch under key, restarting the
// quiet-period timer. A file for a batch that is already awaiting payment
// starts its own standalone batch.
func (s *Service) AddFile(ctx context.Context, key Key, f File, origin Origin) (Snapshot, error) {
	price, err := s.ledger.PricePerFile(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get price: %w", err)
	}
	f.Price = price

	snap, err := s.acc.AddFile(key, f, origin)
	if errors.Is(err, ErrBatchClosed) {
		key = NewKey(key.UserID, "", f.MessageID)
		snap, err = s.acc.AddFile(key, f, origin)
	}
	if err != nil {
		return Snapshot{}, err
	}

	s.debounce.Arm(snap.Key, s.cfg.Debounce, s.onQuiet)
	s.notifier.BatchProgress(ctx, origin, snap)
	return snap, nil
}

// CheckoutReady reports whether a provider charge of amount for invoiceID can
// still be honoured.
func (s *Service) CheckoutReady(invoiceID string, amount int64) error {
	b, err := s.acc.FindByInvoice(invoiceID)
	if err != nil {
		return ErrSessionExpired
	}
	if b.Method != types.MethodExternal && b.Method != types.MethodPartial {
		return ErrChoiceUnavailable
	}
	if b.External != amount {
		return fmt.Errorf("%w: expected %d, got %d", ErrChoiceUnavailable, b.External, amount)
	}
	return nil
}

func (s *Service) HeldPaths() []string {
	return s.acc.HeldPaths()
}

func (s *Service) onQuiet(key Key) {
	ctx := logger.WithUserID(s.ctx, key.UserID)
	s.guard(ctx, "close batch", func() { s.closeBatch(ctx, key) })
}

// closeBatch moves the batch to awaiting payment, arms abandonment and routes it.
func (s *Service) closeBatch(ctx context.Context, key Key) {
	invoiceID := s.newID()
	b, err := s.acc.Close(key, invoiceID)
	if err != nil {
		s.log.Debug(ctx, "Batch already handled", "key", key.String(), "error", err)
		return
	}
	ctx = logger.WithInvoiceID(ctx, invoiceID)

	h := After(s.clock, s.cfg.AbandonAfter, func() {
		s.guard(ctx, "abandon batch", func() { s.abandon(ctx, invoiceID) })
	})
	if !s.acc.AttachAbandon(invoiceID, h) {
		h.Cancel()
		return
	}

	err = s.payments.CreatePayment(ctx, types.Payment{
		InvoiceID:  invoiceID,
		UserID:     key.UserID,
		ChatID:     b.Origin.ChatID,
		FileCount:  len(b.Files),
		TotalPrice: b.TotalPrice,
		Amount:     b.TotalPrice,
		Method:     types.MethodUndecided,
		Status:     types.PaymentPending,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		s.log.Error(ctx, "Failed to record payment", "error", err)
		s.teardown(ctx, invoiceID, types.PaymentFailed)
		s.notifier.Rejected(ctx, b.Origin, fmt.Errorf("%w: %v", ErrGateway, err))
		return
	}

	balance, err := s.ledger.Balance(ctx, key.UserID)
	if err != nil {
		s.log.Warn(ctx, "Failed to read balance, routing to provider", "error", err)
		balance = 0
	}

	d := Route(balance, b.TotalPrice, s.minExternal(ctx))
	s.log.Info(ctx, "Batch closed",
		"files", len(b.Files),
		"total", b.TotalPrice,
		"balance", balance,
		"choices", d.Choices,
	)

	if d.Menu() {
		s.notifier.PaymentOptions(ctx, b, d)
		return
	}

	claimed, err := s.acc.Claim(invoiceID, key.UserID, types.MethodExternal)
	if err != nil {
		return
	}
	if err := s.payExternal(ctx, claimed); err != nil {
		s.notifier.Rejected(ctx, b.Origin, err)
	}
}

// minExternal reads the provider minimum from settings, falling back to the
// configured value when it is unset or unreadable.
func (s *Service) minExternal(ctx context.Context) int64 {
	n, err := s.ledger.MinExternalCharge(ctx)
	if err != nil {
		s.log.Warn(ctx, "Failed to read minimum external charge", "error", err)
		return s.cfg.MinExternalCharge
	}
	if n <= 0 {
		return s.cfg.MinExternalCharge
	}
	return n
}

// guard keeps a panicking timer callback from taking the process down.
func (s *Service) guard(ctx context.Context, op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "Recovered panic in batch timer", "op", op, "panic", r)
		}
	}()
	fn()
}

// teardown drops an awaiting batch after a failure that ends it, returning
// any captured balance and deleting its artifacts.
func (s *Service) teardown(ctx context.Context, invoiceID string, status types.PaymentStatus) {
	b, h, err := s.acc.Take(invoiceID)
	if err != nil {
		return
	}
	h.Cancel()
	s.refund(ctx, b)
	s.artifacts.Remove(b.Paths()...)
	if err := s.payments.ClosePayment(ctx, invoiceID, status); err != nil {
		s.log.Error(ctx, "Failed to close payment", "status", status, "error", err)
	}
}

func (s *Service) refund(ctx context.Context, b Batch) {
	if b.Captured <= 0 {
		return
	}
	if _, err := s.ledger.Credit(ctx, b.Key.UserID, b.Captured, types.ReasonBatchRefund, b.InvoiceID); err != nil {
		s.log.Error(ctx, "Failed to refund captured balance", "amount", b.Captured, "error", err)
		s.notifier.Operator(ctx, fmt.Sprintf("refund of %d to user %d for invoice %s failed: %v",
			b.Captured, b.Key.UserID, b.InvoiceID, err))
	}
}
