package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves scripted snapshots and counts fetches.
type fakeSource struct {
	mu      sync.Mutex
	current *Snapshot
	fetches int
}

func (f *fakeSource) set(snapshot *Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = snapshot
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSource) Fetch(context.Context) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.current == nil {
		return &Snapshot{FetchedAt: time.Now()}, nil
	}
	return f.current, nil
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestPollerEvictsTakenSeats(t *testing.T) {
	source := &fakeSource{}
	var mu sync.Mutex
	var evicted []string

	poller := NewPoller(source,
		WithInterval(10*time.Millisecond),
		WithOnEvicted(func(seats []string) {
			mu.Lock()
			evicted = append(evicted, seats...)
			mu.Unlock()
		}),
	)

	require.True(t, poller.Select("A1"))
	require.True(t, poller.Select("A2"))

	poller.Start(context.Background())
	defer poller.Stop()

	waitFor(t, func() bool { return source.fetchCount() >= 1 }, "first fetch")
	assert.Equal(t, []string{"A1", "A2"}, poller.Selection())

	// Someone else takes A2.
	source.set(&Snapshot{LockedSeats: []string{"A2"}, FetchedAt: time.Now()})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(evicted) > 0
	}, "eviction callback")

	mu.Lock()
	assert.Equal(t, []string{"A2"}, evicted)
	mu.Unlock()
	assert.Equal(t, []string{"A1"}, poller.Selection())
}

func TestPollerRejectsSelectingTakenSeat(t *testing.T) {
	source := &fakeSource{}
	source.set(&Snapshot{BookedSeats: []string{"C1"}, FetchedAt: time.Now()})

	poller := NewPoller(source, WithInterval(10*time.Millisecond))
	poller.Start(context.Background())
	defer poller.Stop()

	waitFor(t, func() bool { return poller.LastSnapshot() != nil }, "first snapshot")

	assert.False(t, poller.Select("C1"))
	assert.True(t, poller.Select("C2"))
}

func TestPollerPauseSuppressesFetches(t *testing.T) {
	source := &fakeSource{}

	poller := NewPoller(source, WithInterval(10*time.Millisecond))
	poller.Start(context.Background())
	defer poller.Stop()

	waitFor(t, func() bool { return source.fetchCount() >= 2 }, "initial fetches")

	poller.Pause()
	// Let any in-flight tick drain, then measure.
	time.Sleep(30 * time.Millisecond)
	paused := source.fetchCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, paused, source.fetchCount(), "no fetches while paused")

	poller.Resume()
	waitFor(t, func() bool { return source.fetchCount() > paused }, "fetches after resume")
}

func TestPollerReconcilesOnResume(t *testing.T) {
	source := &fakeSource{}
	poller := NewPoller(source, WithInterval(10*time.Millisecond))

	require.True(t, poller.Select("D4"))
	poller.Start(context.Background())
	defer poller.Stop()

	poller.Pause()
	source.set(&Snapshot{BookedSeats: []string{"D4"}, FetchedAt: time.Now()})
	poller.Resume()

	waitFor(t, func() bool { return len(poller.Selection()) == 0 }, "stale selection dropped")
}

func TestPollerStopHaltsLoop(t *testing.T) {
	source := &fakeSource{}
	poller := NewPoller(source, WithInterval(10*time.Millisecond))

	poller.Start(context.Background())
	waitFor(t, func() bool { return source.fetchCount() >= 1 }, "first fetch")
	poller.Stop()

	stopped := source.fetchCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, source.fetchCount())
}

func TestSelectDeselectWithoutPolling(t *testing.T) {
	poller := NewPoller(nil)
	require.True(t, poller.Select("A1"))
	poller.Deselect("A1")
	assert.Empty(t, poller.Selection())
}
