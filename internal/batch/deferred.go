package batch

import (
	"sync/atomic"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/internal/clock"
)

const (
	stateArmed int32 = iota
	stateFired
	stateCancelled
)

// Deferred is a one-shot cancellable action. Exactly one of {fn runs, Cancel
// returns true} happens for every instance.
type Deferred struct {
	state atomic.Int32
	timer clock.Timer
}

func After(c clock.Clock, d time.Duration, fn func()) *Deferred {
	h := &Deferred{}
	h.timer = c.AfterFunc(d, func() {
		if h.state.CompareAndSwap(stateArmed, stateFired) {
			fn()
		}
	})
	return h
}

// Cancel is idempotent and safe to call on a nil handle.
func (h *Deferred) Cancel() bool {
	if h == nil {
		return false
	}
	if !h.state.CompareAndSwap(stateArmed, stateCancelled) {
		return false
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	return true
}

