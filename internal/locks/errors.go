package locks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLockNotFound = errors.New("lock not found")
	ErrLockExpired  = errors.New("lock expired")
	ErrNotLockOwner = errors.New("lock held by another user")
)

// ConflictError reports which requested seats were already held or
// booked. The whole request fails; no partial holds are left behind.
type ConflictError struct {
	Seats []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

// IsConflict reports whether err is a seat conflict and returns the
// contested seats if so.
func IsConflict(err error) ([]string, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Seats, true
	}
	return nil, false
}
