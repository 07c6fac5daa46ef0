package batch

import (
	"sync"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/internal/clock"
)

// Debouncer keeps at most one armed Deferred per key.
type Debouncer struct {
	clock  clock.Clock
	mu     sync.Mutex
	timers map[Key]*Deferred
}

func NewDebouncer(c clock.Clock) *Debouncer {
	return &Debouncer{
		clock:  c,
		timers: make(map[Key]*Deferred),
	}
}

// Arm cancels any armed timer for key and starts a fresh one.
func (d *Debouncer) Arm(key Key, delay time.Duration, onFire func(Key)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.timers[key]; ok {
		prev.Cancel()
	}

	var h *Deferred
	h = After(d.clock, delay, func() {
		d.mu.Lock()
		if d.timers[key] == h {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		onFire(key)
	})
	d.timers[key] = h
}

// CancelAll disarms every pending timer; callbacks that already started run on.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	timers := d.timers
	d.timers = make(map[Key]*Deferred)
	d.mu.Unlock()
	for _, h := range timers {
		h.Cancel()
	}
}
