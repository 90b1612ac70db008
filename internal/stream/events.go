package stream

import (
	"encoding/json"
	"time"
)

// Event types carried on the seat and booking topics
const (
	EventSeatsLocked      = "seats.locked"
	EventSeatsReleased    = "seats.released"
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// Event is the wire format for all lifecycle events. Messages are keyed
// by show id so every event of one show lands on one partition, in
// order.
type Event struct {
	Type      string    `json:"type"`
	ShowID    string    `json:"show_id"`
	BookingID string    `json:"booking_id,omitempty"`
	LockID    string    `json:"lock_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Seats     []string  `json:"seats,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
