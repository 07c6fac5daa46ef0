package batch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestDeferred_CancelBeforeFire(t *testing.T) {
	c := clock.NewFake(epoch)
	fired := 0
	h := After(c, time.Second, func() { fired++ })

	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel())
	c.Advance(time.Minute)

	assert.Zero(t, fired)
	assert.Zero(t, c.Pending())
}

func TestDeferred_CancelAfterFire(t *testing.T) {
	c := clock.NewFake(epoch)
	fired := 0
	h := After(c, time.Second, func() { fired++ })

	c.Advance(time.Second)

	assert.Equal(t, 1, fired)
	assert.False(t, h.Cancel())
}

func TestDeferred_NilCancel(t *testing.T) {
	var h *Deferred
	assert.False(t, h.Cancel())
}

func TestDeferred_FireAndCancelRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		var fired atomic.Int32
		h := After(clock.Real{}, time.Microsecond, func() { fired.Add(1) })
		time.Sleep(time.Duration(i%3) * time.Microsecond)
		cancelled := h.Cancel()

		if cancelled {
			time.Sleep(time.Millisecond)
			assert.Zero(t, fired.Load())
			continue
		}
		assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	}
}

func TestDebouncer_RearmKeepsOneTimer(t *testing.T) {
	c := clock.NewFake(epoch)
	d := NewDebouncer(c)
	key := NewKey(1, "g", 0)
	var fired []Key

	d.Arm(key, 3*time.Second, func(k Key) { fired = append(fired, k) })
	c.Advance(2 * time.Second)
	d.Arm(key, 3*time.Second, func(k Key) { fired = append(fired, k) })
	c.Advance(2 * time.Second)

	assert.Empty(t, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []Key{key}, fired)
	assert.Zero(t, c.Pending())
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	c := clock.NewFake(epoch)
	d := NewDebouncer(c)
	var mu sync.Mutex
	count := map[Key]int{}
	onFire := func(k Key) {
		mu.Lock()
		count[k]++
		mu.Unlock()
	}

	a, b := NewKey(1, "a", 0), NewKey(2, "b", 0)
	d.Arm(a, time.Second, onFire)
	d.Arm(b, 2*time.Second, onFire)
	c.Advance(time.Second)
	d.Arm(b, 2*time.Second, onFire)
	c.Advance(5 * time.Second)

	assert.Equal(t, 1, count[a])
	assert.Equal(t, 1, count[b])
}

func TestDebouncer_CancelAll(t *testing.T) {
	c := clock.NewFake(epoch)
	d := NewDebouncer(c)
	fired := 0
	d.Arm(NewKey(1, "a", 0), time.Second, func(Key) { fired++ })
	d.Arm(NewKey(2, "b", 0), 2*time.Second, func(Key) { fired++ })

	d.CancelAll()
	c.Advance(time.Minute)

	assert.Zero(t, fired)
	d.CancelAll()

	d.Arm(NewKey(1, "a", 0), time.Second, func(Key) { fired++ })
	c.Advance(time.Second)
	assert.Equal(t, 1, fired)
}
