package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/internal/clock"
	"github.com/BatmanBruc/docx-quiz-bot/types"
)

// Key identifies a batch: one uploader and one media group.
type Key struct {
	UserID  int64
	GroupID string
}

// NewKey uses the media group id when present, otherwise a one-shot group
// derived from the message id.
func NewKey(userID int64, mediaGroupID string, messageID int) Key {
	if mediaGroupID == "" {
		return Key{UserID: userID, GroupID: fmt.Sprintf("single_%d", messageID)}
	}
	return Key{UserID: userID, GroupID: mediaGroupID}
}

func (k Key) String() string {
	return fmt.Sprintf("%d_%s", k.UserID, k.GroupID)
}

// Origin is where results and notices for a batch are sent.
type Origin struct {
	ChatID int64
	Lang   string
}

type File struct {
	Path      string
	Name      string
	MessageID int
	Price     int64
}

// Batch is a copy of the accumulator state for one key.
type Batch struct {
	Key        Key
	Origin     Origin
	Files      []File
	TotalPrice int64
	InvoiceID  string
	Method     types.PaymentMethod
	// Captured is the balance already debited for this batch.
	Captured int64
	// External is the amount requested from the payment provider.
	External  int64
	CreatedAt time.Time
	ClosedAt  time.Time
}

func (b Batch) Paths() []string {
	paths := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

func (b Batch) AwaitingPayment() bool {
	return b.InvoiceID != ""
}

type Snapshot struct {
	Key        Key
	FileCount  int
	TotalPrice int64
}

type entry struct {
	batch   Batch
	abandon *Deferred
}

func (e *entry) copyBatch() Batch {
	b := e.batch
	b.Files = append([]File(nil), e.batch.Files...)
	return b
}

// Accumulator holds open and awaiting-payment batches in memory.
type Accumulator struct {
	clock     clock.Clock
	mu        sync.Mutex
	batches   map[Key]*entry
	byInvoice map[string]Key
}

func NewAccumulator(c clock.Clock) *Accumulator {
	return &Accumulator{
		clock:     c,
		batches:   make(map[Key]*entry),
		byInvoice: make(map[string]Key),
	}
}

// AddFile appends f to the open batch under key, creating it with origin on
// first arrival. A batch that already has an invoice returns ErrBatchClosed.
func (a *Accumulator) AddFile(key Key, f File, origin Origin) (Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.batches[key]
	if !ok {
		e = &entry{batch: Batch{
			Key:       key,
			Origin:    origin,
			CreatedAt: a.clock.Now(),
		}}
		a.batches[key] = e
	}
	if e.batch.AwaitingPayment() {
		return Snapshot{}, ErrBatchClosed
	}

	e.batch.Files = append(e.batch.Files, f)
	e.batch.TotalPrice += f.Price

	return Snapshot{
		Key:        key,
		FileCount:  len(e.batch.Files),
		TotalPrice: e.batch.TotalPrice,
	}, nil
}

// Close assigns invoiceID to the open batch under key.
func (a *Accumulator) Close(key Key, invoiceID string) (Batch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.batches[key]
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	if e.batch.AwaitingPayment() {
		return Batch{}, ErrBatchClosed
	}
	e.batch.InvoiceID = invoiceID
	e.batch.ClosedAt = a.clock.Now()
	a.byInvoice[invoiceID] = key
	return e.copyBatch(), nil
}

// AttachAbandon binds h to the batch holding invoiceID. It reports false when
// the batch is gone, in which case the caller owns h.
func (a *Accumulator) AttachAbandon(invoiceID string, h *Deferred) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.lookupLocked(invoiceID)
	if !ok {
		return false
	}
	e.abandon = h
	return true
}

// Remove drops the batch under key and cancels its abandonment timer. Only
// the call that actually removed the batch gets ok == true.
func (a *Accumulator) Remove(key Key) (Batch, bool) {
	a.mu.Lock()
	e, ok := a.batches[key]
	if ok {
		a.deleteLocked(key, e)
	}
	a.mu.Unlock()

	if !ok {
		return Batch{}, false
	}
	e.abandon.Cancel()
	return e.copyBatch(), true
}

func (a *Accumulator) FindByInvoice(invoiceID string) (Batch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.lookupLocked(invoiceID)
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	return e.copyBatch(), nil
}

// Take removes the batch holding invoiceID and hands its abandonment timer
// to the caller.
func (a *Accumulator) Take(invoiceID string) (Batch, *Deferred, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.lookupLocked(invoiceID)
	if !ok {
		return Batch{}, nil, ErrBatchNotFound
	}
	a.deleteLocked(e.batch.Key, e)
	return e.copyBatch(), e.abandon, nil
}

// Claim records the payment method for an awaiting batch. Only one claim
// per batch succeeds until Release.
func (a *Accumulator) Claim(invoiceID string, userID int64, method types.PaymentMethod) (Batch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.lookupLocked(invoiceID)
	if !ok || e.batch.Key.UserID != userID {
		return Batch{}, ErrBatchNotFound
	}
	if e.batch.Method != types.MethodUndecided {
		return Batch{}, ErrAlreadyProcessed
	}
	e.batch.Method = method
	return e.copyBatch(), nil
}

func (a *Accumulator) Release(invoiceID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.lookupLocked(invoiceID); ok {
		e.batch.Method = types.MethodUndecided
		e.batch.Captured = 0
		e.batch.External = 0
	}
}

// SetCapture stores how total is split between balance and provider.
func (a *Accumulator) SetCapture(invoiceID string, captured, external int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.lookupLocked(invoiceID)
	if !ok {
		return ErrBatchNotFound
	}
	e.batch.Captured = captured
	e.batch.External = external
	return nil
}

// HeldPaths lists every artifact referenced by a live batch.
func (a *Accumulator) HeldPaths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var paths []string
	for _, e := range a.batches {
		paths = append(paths, e.batch.Paths()...)
	}
	return paths
}

// CancelTimers stops every abandonment timer without touching batches.
func (a *Accumulator) CancelTimers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.batches {
		e.abandon.Cancel()
	}
}

func (a *Accumulator) lookupLocked(invoiceID string) (*entry, bool) {
	if invoiceID == "" {
		return nil, false
	}
	key, ok := a.byInvoice[invoiceID]
	if !ok {
		return nil, false
	}
	e, ok := a.batches[key]
	if !ok || e.batch.InvoiceID != invoiceID {
		return nil, false
	}
	return e, true
}

func (a *Accumulator) deleteLocked(key Key, e *entry) {
	delete(a.batches, key)
	if e.batch.InvoiceID != "" {
		delete(a.byInvoice, e.batch.InvoiceID)
	}
}
