package locks

import (
	"context"
	"fmt"
	"time"

	"cinebook/pkg/logger"

	"github.com/google/uuid"
)

// BookedSeatChecker reports which of the given seats are already sold
// for the show. Implemented by the bookings repository.
type BookedSeatChecker interface {
	BookedSeats(ctx context.Context, showID string, seats []string) ([]string, error)
}

// EventPublisher receives seat hold lifecycle notifications. Optional;
// a nil publisher disables events.
type EventPublisher interface {
	PublishSeatsLocked(ctx context.Context, showID, lockID string, seats []string)
	PublishSeatsReleased(ctx context.Context, showID, lockID string, seats []string)
}

type Service interface {
	// Lock grants an all-or-nothing hold on the requested seats.
	Lock(ctx context.Context, userID string, req LockRequest) (*SeatLock, error)

	// Unlock releases a hold the user owns.
	Unlock(ctx context.Context, userID, lockID string) error

	// Release frees a hold regardless of owner. For internal callers
	// acting on behalf of the booking lifecycle.
	Release(ctx context.Context, lockID, reason string) error

	Get(ctx context.Context, lockID string) (*SeatLock, error)
	ActiveForShow(ctx context.Context, showID string) ([]SeatLock, error)
}

type service struct {
	store   Store
	booked  BookedSeatChecker
	events  EventPublisher
	lockTTL time.Duration
	log     *logger.Logger
}

func NewService(store Store, booked BookedSeatChecker, events EventPublisher, lockTTL time.Duration, log *logger.Logger) Service {
	return &service{
		store:   store,
		booked:  booked,
		events:  events,
		lockTTL: lockTTL,
		log:     log,
	}
}

func (s *service) Lock(ctx context.Context, userID string, req LockRequest) (*SeatLock, error) {
	seats, err := dedupeSeats(req.Seats)
	if err != nil {
		return nil, err
	}

	// Sold seats conflict the same way held seats do.
	if s.booked != nil {
		sold, err := s.booked.BookedSeats(ctx, req.ShowID, seats)
		if err != nil {
			return nil, fmt.Errorf("failed to check booked seats: %w", err)
		}
		if len(sold) > 0 {
			return nil, &ConflictError{Seats: sold}
		}
	}

	now := time.Now()
	lock := &SeatLock{
		ID:        uuid.New().String(),
		ShowID:    req.ShowID,
		UserID:    userID,
		Seats:     seats,
		CreatedAt: now,
		ExpiresAt: now.Add(s.lockTTL),
	}

	if err := s.store.Acquire(ctx, lock); err != nil {
		return nil, err
	}

	s.log.LogLockGranted(ctx, lock.ID, lock.ShowID, userID, len(seats))
	if s.events != nil {
		s.events.PublishSeatsLocked(ctx, lock.ShowID, lock.ID, seats)
	}

	return lock, nil
}

func (s *service) Unlock(ctx context.Context, userID, lockID string) error {
	lock, err := s.store.Get(ctx, lockID)
	if err != nil {
		return err
	}
	if lock.UserID != userID {
		return ErrNotLockOwner
	}
	return s.release(ctx, lock, "user-released")
}

func (s *service) Release(ctx context.Context, lockID, reason string) error {
	lock, err := s.store.Get(ctx, lockID)
	if err != nil {
		return err
	}
	return s.release(ctx, lock, reason)
}

func (s *service) release(ctx context.Context, lock *SeatLock, reason string) error {
	if err := s.store.Release(ctx, lock.ID); err != nil {
		return err
	}

	s.log.LogLockReleased(ctx, lock.ID, reason)
	if s.events != nil {
		s.events.PublishSeatsReleased(ctx, lock.ShowID, lock.ID, lock.Seats)
	}
	return nil
}

func (s *service) Get(ctx context.Context, lockID string) (*SeatLock, error) {
	return s.store.Get(ctx, lockID)
}

func (s *service) ActiveForShow(ctx context.Context, showID string) ([]SeatLock, error) {
	return s.store.ActiveForShow(ctx, showID)
}

func dedupeSeats(seats []string) ([]string, error) {
	seen := make(map[string]bool, len(seats))
	out := make([]string, 0, len(seats))
	for _, seat := range seats {
		if seat == "" {
			return nil, fmt.Errorf("empty seat label")
		}
		if seen[seat] {
			continue
		}
		seen[seat] = true
		out = append(out, seat)
	}
	return out, nil
}
