package bookings

import (
	"context"
	"sync"
	"time"

	"cinebook/pkg/logger"
)

const sweepBatchSize = 100

// JobProcessor sweeps expired non-terminal bookings in the background.
// Expiry is otherwise lazy (checked on status reads), so the sweeper
// only has to catch bookings nobody is polling anymore, such as a
// payment window the user dismissed and walked away from.
type JobProcessor struct {
	service  Service
	repo     Repository
	interval time.Duration
	log      *logger.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewJobProcessor(service Service, repo Repository, interval time.Duration, log *logger.Logger) *JobProcessor {
	return &JobProcessor{
		service:  service,
		repo:     repo,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (p *JobProcessor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	p.wg.Add(1)
	go p.run()

	p.log.Info("Booking expiry sweeper started", "interval", p.interval.String())
}

// Stop halts the sweep loop and waits for an in-flight pass to finish.
func (p *JobProcessor) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	p.log.Info("Booking expiry sweeper stopped")
}

func (p *JobProcessor) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweepExpired()
		case <-p.stopCh:
			return
		}
	}
}

func (p *JobProcessor) sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := p.repo.ListExpired(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		p.log.ErrorWithContext(ctx, "failed to list expired bookings", err, nil)
		return
	}

	for _, booking := range expired {
		if err := p.service.Cancel(ctx, booking.ID, ReasonSystemTimeout); err != nil {
			// Lost a race with a concurrent confirm or cancel; the
			// booking is terminal either way.
			p.log.WarnContext(ctx, "expiry sweep skipped booking",
				"booking_id", booking.ID.String(), "error", err.Error())
		}
	}

	if len(expired) > 0 {
		p.log.InfoWithContext(ctx, "expiry sweep pass complete", map[string]interface{}{
			"swept": len(expired),
		})
	}
}
