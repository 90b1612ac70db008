package payments

import (
	"context"
	"sync"
	"time"

	"cinebook/pkg/logger"
)

// AbandonSweeper closes payment windows whose checkout never called
// back. The dismiss callback covers cooperative clients; this covers
// the tab that simply closed.
type AbandonSweeper struct {
	service  Service
	interval time.Duration
	log      *logger.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewAbandonSweeper(service Service, interval time.Duration, log *logger.Logger) *AbandonSweeper {
	return &AbandonSweeper{
		service:  service,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

func (s *AbandonSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go s.run()

	s.log.Info("Payment abandonment sweeper started", "interval", s.interval.String())
}

func (s *AbandonSweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("Payment abandonment sweeper stopped")
}

func (s *AbandonSweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *AbandonSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := s.service.AbandonStale(ctx)
	if err != nil {
		s.log.ErrorWithContext(ctx, "abandonment sweep failed", err, nil)
		return
	}
	if closed > 0 {
		s.log.InfoWithContext(ctx, "abandonment sweep pass complete", map[string]interface{}{
			"closed": closed,
		})
	}
}
