package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/internal/clock"
	"github.com/BatmanBruc/docx-quiz-bot/store"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu        sync.Mutex
	progress  []Snapshot
	options   []Decision
	settled   []settledEvent
	abandoned []Batch
	rejected  []error
	operator  []string
}

type settledEvent struct {
	batch     Batch
	delivered []string
	failures  []FileError
}

func (n *fakeNotifier) BatchProgress(ctx context.Context, origin Origin, snap Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, snap)
}

func (n *fakeNotifier) PaymentOptions(ctx context.Context, b Batch, d Decision) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.options = append(n.options, d)
}

func (n *fakeNotifier) BatchSettled(ctx context.Context, b Batch, delivered []string, failures []FileError) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.settled = append(n.settled, settledEvent{batch: b, delivered: delivered, failures: failures})
}

func (n *fakeNotifier) BatchAbandoned(ctx context.Context, b Batch) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.abandoned = append(n.abandoned, b)
}

func (n *fakeNotifier) Rejected(ctx context.Context, origin Origin, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, err)
}

func (n *fakeNotifier) Operator(ctx context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.operator = append(n.operator, text)
}

type fakeGateway struct {
	mu       sync.Mutex
	invoices []Invoice
	err      error
}

func (g *fakeGateway) CreateInvoice(ctx context.Context, inv Invoice) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.invoices = append(g.invoices, inv)
	return nil
}

type fakeConverter struct {
	fail map[string]error
}

func (c *fakeConverter) Convert(ctx context.Context, src string) (string, error) {
	if err, ok := c.fail[src]; ok {
		return "", err
	}
	return src + ".txt", nil
}

type fakeDeliverer struct {
	mu    sync.Mutex
	names []string
}

func (d *fakeDeliverer) DeliverFile(ctx context.Context, origin Origin, path, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	return nil
}

type fakeArtifacts struct {
	mu      sync.Mutex
	removed map[string]int
}

func (a *fakeArtifacts) Remove(paths ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.removed == nil {
		a.removed = make(map[string]int)
	}
	for _, p := range paths {
		a.removed[p]++
	}
}

func (a *fakeArtifacts) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.removed[path]
}

type harness struct {
	svc       *Service
	clock     *clock.Fake
	store     *store.MemoryStore
	notifier  *fakeNotifier
	gateway   *fakeGateway
	converter *fakeConverter
	deliverer *fakeDeliverer
	artifacts *fakeArtifacts
}

const (
	testPrice       = 5000
	testMinExternal = 1000
	testUser        = int64(101)
	testChat        = int64(9001)
)

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:     clock.NewFake(epoch),
		store:     store.NewMemoryStore(testPrice),
		notifier:  &fakeNotifier{},
		gateway:   &fakeGateway{},
		converter: &fakeConverter{fail: map[string]error{}},
		deliverer: &fakeDeliverer{},
		artifacts: &fakeArtifacts{},
	}
	seq := 0
	h.svc = NewService(Config{
		Debounce:          3 * time.Second,
		AbandonAfter:      30 * time.Minute,
		MinExternalCharge: testMinExternal,
	}, Deps{
		Ledger:    h.store,
		Payments:  h.store,
		Converter: h.converter,
		Gateway:   h.gateway,
		Notifier:  h.notifier,
		Deliverer: h.deliverer,
		Artifacts: h.artifacts,
		Clock:     h.clock,
		NewInvoiceID: func() string {
			seq++
			return fmt.Sprintf("inv-%d", seq)
		},
	})
	t.Cleanup(h.svc.Stop)
	return h
}

func (h *harness) upload(t *testing.T, group string, messageID int) Snapshot {
	t.Helper()
	key := NewKey(testUser, group, messageID)
	snap, err := h.svc.AddFile(context.Background(), key, File{
		Path:      fmt.Sprintf("/files/%d.docx", messageID),
		Name:      fmt.Sprintf("test-%d.docx", messageID),
		MessageID: messageID,
	}, Origin{ChatID: testChat, Lang: "en"})
	require.NoError(t, err)
	return snap
}

func (h *harness) settle(invoiceID string, charged int64) error {
	return h.settleAs(testUser, invoiceID, charged)
}

func (h *harness) settleAs(payer int64, invoiceID string, charged int64) error {
	return h.svc.Settle(context.Background(), Settlement{
		InvoiceID: invoiceID,
		UserID:    payer,
		Origin:    Origin{ChatID: testChat, Lang: "en"},
		Charge:    types.Charge{Amount: charged, TelegramPaymentCharge: "tg-" + invoiceID},
	})
}

var errBroken = errors.New("broken document")
