package locks

import "context"

// Store grants and releases seat locks. Grants are all-or-nothing: on a
// conflict the store returns a ConflictError and leaves no partial
// holds behind. Expiry is lazy; implementations may keep expired
// entries around but must never return them as active.
type Store interface {
	// Acquire grants the lock described by lock, or returns a
	// ConflictError listing every contested seat.
	Acquire(ctx context.Context, lock *SeatLock) error

	// Release frees every seat of the lock. Releasing an unknown or
	// already expired lock returns ErrLockNotFound.
	Release(ctx context.Context, lockID string) error

	// Get returns the lock if it is still active.
	Get(ctx context.Context, lockID string) (*SeatLock, error)

	// ActiveForShow returns every unexpired lock on the show.
	ActiveForShow(ctx context.Context, showID string) ([]SeatLock, error)
}
