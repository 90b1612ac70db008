package locks

import "time"

// SeatLock is a temporary all-or-nothing hold on a set of seats in one
// show. It either covers every requested seat or does not exist.
type SeatLock struct {
	ID        string    `json:"lock_id"`
	ShowID    string    `json:"show_id"`
	UserID    string    `json:"user_id"`
	Seats     []string  `json:"seats"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the lock's deadline has passed. Stores expire
// lazily, so holders must check this on every read.
func (l *SeatLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// LockRequest asks for a hold on seats of a show. HallID is accepted
// for client convenience but the show already pins the hall.
type LockRequest struct {
	ShowID string   `json:"show_id" binding:"required,uuid"`
	HallID string   `json:"hall_id"`
	Seats  []string `json:"seats" binding:"required,min=1,max=10,dive,required"`
}

// LockResponse is returned on a successful grant
type LockResponse struct {
	LockID    string    `json:"lockId"`
	ShowID    string    `json:"showId"`
	Seats     []string  `json:"seats"`
	ExpiresAt time.Time `json:"expiresAt"`
}
