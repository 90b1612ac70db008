package seatmap

import "time"

const (
	SeatAvailable = "available"
	SeatLocked    = "locked"
	SeatBooked    = "booked"
)

// SeatStatus is one grid cell of the seat map. LockedBy and
// LockExpiresAt are set only while the seat is locked; a booked seat
// never reports a holder.
type SeatStatus struct {
	Label         string     `json:"label"`
	Row           int        `json:"row"`
	Col           int        `json:"col"`
	Status        string     `json:"status"`
	LockedBy      string     `json:"lockedBy,omitempty"`
	LockExpiresAt *time.Time `json:"lockExpiresAt,omitempty"`
}

// SeatMapResponse is the full derived view of a show's seats. Every
// seat appears in exactly one of the three partitions; booked wins over
// locked when both records exist.
type SeatMapResponse struct {
	ShowID         string       `json:"showId"`
	HallID         string       `json:"hallId"`
	Rows           int          `json:"rows"`
	Cols           int          `json:"cols"`
	Seats          []SeatStatus `json:"seats"`
	BookedSeats    []string     `json:"bookedSeats"`
	LockedSeats    []string     `json:"lockedSeats"`
	AvailableSeats []string     `json:"availableSeats"`
	FetchedAt      time.Time    `json:"fetchedAt"`
}
