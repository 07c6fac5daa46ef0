package batch

import (
	"sync"
	"testing"

	"github.com/BatmanBruc/docx-quiz-bot/internal/clock"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccumulator() *Accumulator {
	return NewAccumulator(clock.NewFake(epoch))
}

var testOrigin = Origin{ChatID: testChat, Lang: "ru"}

func TestNewKey(t *testing.T) {
	assert.Equal(t, Key{UserID: 1, GroupID: "g"}, NewKey(1, "g", 5))
	assert.Equal(t, Key{UserID: 1, GroupID: "single_5"}, NewKey(1, "", 5))
	assert.Equal(t, "1_single_5", NewKey(1, "", 5).String())
}

func TestAccumulator_AddFile_SumsPricesInOrder(t *testing.T) {
	a := newTestAccumulator()
	key := NewKey(1, "g", 0)

	a.AddFile(key, File{Path: "a", Price: 100}, testOrigin)
	a.AddFile(key, File{Path: "b", Price: 250}, Origin{ChatID: 2, Lang: "en"})
	snap, err := a.AddFile(key, File{Path: "c", Price: 50}, testOrigin)

	require.NoError(t, err)
	assert.Equal(t, 3, snap.FileCount)
	assert.Equal(t, int64(400), snap.TotalPrice)

	b, err := a.Close(key, "inv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, b.Paths())
	assert.Equal(t, testOrigin, b.Origin, "origin is fixed by the first file")
}

func TestAccumulator_Close_OnlyOnce(t *testing.T) {
	a := newTestAccumulator()
	key := NewKey(1, "g", 0)
	a.AddFile(key, File{Path: "a", Price: 1}, testOrigin)

	_, err := a.Close(key, "inv-1")
	require.NoError(t, err)
	_, err = a.Close(key, "inv-2")
	assert.ErrorIs(t, err, ErrBatchClosed)

	b, err := a.FindByInvoice("inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", b.InvoiceID)
	_, err = a.FindByInvoice("inv-2")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestAccumulator_Close_Missing(t *testing.T) {
	a := newTestAccumulator()

	_, err := a.Close(NewKey(1, "g", 0), "inv")

	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestAccumulator_AddFile_ClosedBatch(t *testing.T) {
	a := newTestAccumulator()
	key := NewKey(1, "g", 0)
	a.AddFile(key, File{Path: "a", Price: 1}, testOrigin)
	a.Close(key, "inv")

	_, err := a.AddFile(key, File{Path: "b", Price: 1}, testOrigin)

	assert.ErrorIs(t, err, ErrBatchClosed)
	b, _ := a.FindByInvoice("inv")
	assert.Len(t, b.Files, 1)
}

func TestAccumulator_Remove_Idempotent(t *testing.T) {
	a := newTestAccumulator()
	key := NewKey(1, "g", 0)
	a.AddFile(key, File{Path: "a", Price: 1}, testOrigin)
	a.Close(key, "inv")

	b, ok := a.Remove(key)
	require.True(t, ok)
	assert.Equal(t, "inv", b.InvoiceID)

	_, ok = a.Remove(key)
	assert.False(t, ok)
	_, ok = a.Remove(NewKey(2, "x", 0))
	assert.False(t, ok)
	_, err := a.FindByInvoice("inv")
	assert.ErrorIs(t, err, ErrBatchNotFound)
	assert.Empty(t, a.HeldPaths())
}

func TestAccumulator_Remove_CancelsAbandon(t *testing.T) {
	c := clock.NewFake(epoch)
	a := NewAccumulator(c)
	key := NewKey(1, "g", 0)
	a.AddFile(key, File{Path: "a", Price: 1}, testOrigin)
	a.Close(key, "inv")
	fired := false
	h := After(c, 10, func() { fired = true })
	require.True(t, a.AttachAbandon("inv", h))

	a.Remove(key)
	c.Advance(100)

	assert.False(t, fired)
	assert.False(t, a.AttachAbandon("inv", h))
}

func TestAccumulator_Take_OnlyOnce(t *testing.T) {
	a := newTestAccumulator()
	key := NewKey(1, "g", 0)
	a.AddFile(key, File{Path: "a", Price: 1}, testOrigin)
	a.Close(key, "inv")

	_, _, err := a.Take("inv")
	require.NoError(t, err)
	_, _, err = a.Take("inv")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestAccumulator_ClaimRelease(t *testing.T) {
	a := newTestAccumulator()
	key := NewKey(1, "g", 0)
	a.AddFile(key, File{Path: "a", Price: 1}, testOrigin)
	a.Close(key, "inv")

	_, err := a.Claim("inv", 1, types.MethodBalance)
	require.NoError(t, err)
	_, err = a.Claim("inv", 1, types.MethodExternal)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	a.Release("inv")
	b, err := a.Claim("inv", 1, types.MethodExternal)
	require.NoError(t, err)
	assert.Equal(t, types.MethodExternal, b.Method)

	_, err = a.Claim("inv", 2, types.MethodExternal)
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestAccumulator_ConcurrentAccess(t *testing.T) {
	a := newTestAccumulator()
	const users = 20
	const files = 25

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for f := 0; f < files; f++ {
			wg.Add(1)
			go func(u, f int) {
				defer wg.Done()
				a.AddFile(NewKey(int64(u), "g", 0), File{Path: "p", Price: 2}, testOrigin)
			}(u, f)
		}
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		b, err := a.Close(NewKey(int64(u), "g", 0), "inv-"+string(rune('a'+u)))
		require.NoError(t, err)
		assert.Len(t, b.Files, files)
		assert.Equal(t, int64(2*files), b.TotalPrice)
	}
}

func TestAccumulator_SnapshotIsCopy(t *testing.T) {
	a := newTestAccumulator()
	key := NewKey(1, "g", 0)
	a.AddFile(key, File{Path: "a", Price: 1}, testOrigin)
	b, _ := a.Close(key, "inv")

	b.Files[0].Path = "mutated"

	held, _ := a.FindByInvoice("inv")
	assert.Equal(t, "a", held.Files[0].Path)
}
