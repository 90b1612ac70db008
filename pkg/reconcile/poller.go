// Package reconcile keeps a client-side seat selection consistent with
// the server's seat map. Clients poll while a seat selector is open and
// drop selected seats that someone else locked or bought in the
// meantime; polling pauses while the view is hidden.
package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultInterval matches the storefront's seat map refresh cadence.
const DefaultInterval = 5 * time.Second

// Snapshot is one observation of the server-side seat map. LockedSeats
// holds seats locked by other users; the Source filters out seats held
// by the caller's own lock.
type Snapshot struct {
	BookedSeats []string
	LockedSeats []string
	FetchedAt   time.Time
}

// Unavailable reports whether the seat cannot be selected per this
// snapshot.
func (s *Snapshot) Unavailable(seat string) bool {
	for _, b := range s.BookedSeats {
		if b == seat {
			return true
		}
	}
	for _, l := range s.LockedSeats {
		if l == seat {
			return true
		}
	}
	return false
}

// Source fetches the current seat map of the show being watched.
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the poll cadence.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) { p.interval = interval }
}

// WithOnEvicted registers a callback invoked with the seats dropped
// from the selection during a reconcile pass.
func WithOnEvicted(fn func(seats []string)) Option {
	return func(p *Poller) { p.onEvicted = fn }
}

// WithOnUpdate registers a callback invoked after every successful
// fetch, evictions or not.
func WithOnUpdate(fn func(snapshot *Snapshot)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// Poller periodically fetches the seat map and reconciles the local
// selection against it. Safe for concurrent use.
type Poller struct {
	source    Source
	interval  time.Duration
	onEvicted func(seats []string)
	onUpdate  func(snapshot *Snapshot)

	mu        sync.Mutex
	selection map[string]bool
	last      *Snapshot
	paused    bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(source Source, opts ...Option) *Poller {
	p := &Poller{
		source:    source,
		interval:  DefaultInterval,
		selection: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the poll loop. It fetches once immediately, then on
// every tick until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)

		p.poll(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.poll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the poll loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Pause suppresses fetches without stopping the loop. The hidden-tab
// state: no traffic while nobody is looking.
func (p *Poller) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume re-enables fetches and reconciles immediately on the next
// tick.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
}

// Select adds a seat to the local selection. Returns false if the last
// snapshot already shows the seat as taken.
func (p *Poller) Select(seat string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last != nil && p.last.Unavailable(seat) {
		return false
	}
	p.selection[seat] = true
	return true
}

// Deselect removes a seat from the local selection.
func (p *Poller) Deselect(seat string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.selection, seat)
}

// Selection returns the currently selected seats, sorted.
func (p *Poller) Selection() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	seats := make([]string, 0, len(p.selection))
	for seat := range p.selection {
		seats = append(seats, seat)
	}
	sort.Strings(seats)
	return seats
}

// LastSnapshot returns the most recent successful observation, or nil.
func (p *Poller) LastSnapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	paused := p.paused
	p.mu.Unlock()
	if paused {
		return
	}

	snapshot, err := p.source.Fetch(ctx)
	if err != nil {
		// Transient fetch errors keep the previous view; the next tick
		// retries.
		return
	}

	evicted := p.reconcile(snapshot)

	if len(evicted) > 0 && p.onEvicted != nil {
		p.onEvicted(evicted)
	}
	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}
}

// reconcile applies a snapshot and returns the seats dropped from the
// selection because the server shows them taken.
func (p *Poller) reconcile(snapshot *Snapshot) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = snapshot

	var evicted []string
	for seat := range p.selection {
		if snapshot.Unavailable(seat) {
			delete(p.selection, seat)
			evicted = append(evicted, seat)
		}
	}
	sort.Strings(evicted)
	return evicted
}
