package locks

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests. Same
// all-or-nothing grant and lazy expiry semantics as the Redis store,
// under a single mutex.
type MemoryStore struct {
	mu    sync.Mutex
	locks map[string]*SeatLock
	// show id -> seat label -> lock id
	seats map[string]map[string]string

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks: make(map[string]*SeatLock),
		seats: make(map[string]map[string]string),
		now:   time.Now,
	}
}

func (s *MemoryStore) Acquire(_ context.Context, lock *SeatLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if lock.Expired(now) {
		return ErrLockExpired
	}

	showSeats := s.seats[lock.ShowID]

	var conflicts []string
	for _, seat := range lock.Seats {
		holderID, held := showSeats[seat]
		if !held {
			continue
		}
		holder := s.locks[holderID]
		if holder != nil && !holder.Expired(now) {
			conflicts = append(conflicts, seat)
			continue
		}
		// Expired holder, reap it in place.
		s.evictLocked(holderID)
	}
	if len(conflicts) > 0 {
		return &ConflictError{Seats: conflicts}
	}

	if s.seats[lock.ShowID] == nil {
		s.seats[lock.ShowID] = make(map[string]string)
	}
	for _, seat := range lock.Seats {
		s.seats[lock.ShowID][seat] = lock.ID
	}

	copied := *lock
	copied.Seats = append([]string(nil), lock.Seats...)
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}
	s.locks[lock.ID] = &copied

	return nil
}

func (s *MemoryStore) Release(_ context.Context, lockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[lockID]
	if !ok {
		return ErrLockNotFound
	}
	if lock.Expired(s.now()) {
		s.evictLocked(lockID)
		return ErrLockNotFound
	}

	s.evictLocked(lockID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, lockID string) (*SeatLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[lockID]
	if !ok {
		return nil, ErrLockNotFound
	}
	if lock.Expired(s.now()) {
		s.evictLocked(lockID)
		return nil, ErrLockExpired
	}

	copied := *lock
	copied.Seats = append([]string(nil), lock.Seats...)
	return &copied, nil
}

func (s *MemoryStore) ActiveForShow(_ context.Context, showID string) ([]SeatLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	seen := make(map[string]bool)
	var active []SeatLock
	for _, lockID := range s.seats[showID] {
		if seen[lockID] {
			continue
		}
		seen[lockID] = true

		lock, ok := s.locks[lockID]
		if !ok {
			continue
		}
		if lock.Expired(now) {
			s.evictLocked(lockID)
			continue
		}
		copied := *lock
		copied.Seats = append([]string(nil), lock.Seats...)
		active = append(active, copied)
	}

	return active, nil
}

// evictLocked removes a lock and its seat entries. Caller holds mu.
func (s *MemoryStore) evictLocked(lockID string) {
	lock, ok := s.locks[lockID]
	if !ok {
		return
	}
	if showSeats, ok := s.seats[lock.ShowID]; ok {
		for _, seat := range lock.Seats {
			if showSeats[seat] == lockID {
				delete(showSeats, seat)
			}
		}
		if len(showSeats) == 0 {
			delete(s.seats, lock.ShowID)
		}
	}
	delete(s.locks, lockID)
}
