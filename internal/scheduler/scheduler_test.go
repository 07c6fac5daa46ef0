package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu     sync.Mutex
	calls  int
	maxAge time.Duration
	held   []string
	err    error
	panic  bool
}

func (f *fakeSweeper) Sweep(maxAge time.Duration, held []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.maxAge = maxAge
	f.held = held
	if f.panic {
		panic("disk gone")
	}
	return len(held), f.err
}

type heldList []string

func (h heldList) HeldPaths() []string { return h }

func TestSweepNowPassesHeldPaths(t *testing.T) {
	sw := &fakeSweeper{}
	s, err := NewScheduler(sw, heldList{"/files/a.docx"}, nil, Config{SweepMaxAge: 90 * time.Minute})
	require.NoError(t, err)

	n, err := s.SweepNow()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 90*time.Minute, sw.maxAge)
	assert.Equal(t, []string{"/files/a.docx"}, sw.held)
}

func TestInvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&fakeSweeper{}, nil, nil, Config{SweepSchedule: "every now and then"})
	assert.Error(t, err)
}

func TestRunSweepSurvivesFailures(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("permission denied")}
	s, err := NewScheduler(sw, nil, nil, Config{})
	require.NoError(t, err)

	assert.NotPanics(t, s.runSweep)

	sw.panic = true
	assert.NotPanics(t, s.runSweep)
	assert.Equal(t, 2, sw.calls)
}

func TestStoppedSchedulerSkipsSweep(t *testing.T) {
	sw := &fakeSweeper{}
	s, err := NewScheduler(sw, nil, nil, Config{})
	require.NoError(t, err)

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	s.runSweep()
	assert.Equal(t, 0, sw.calls)
}
