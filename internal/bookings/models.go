package bookings

import (
	"time"

	"cinebook/internal/pricing"

	"github.com/google/uuid"
)

// Status is the booking lifecycle state. PENDING (pay-now) and LOCKED
// (pay-later) are chosen at creation and hold until payment settles.
//
//	PENDING | LOCKED -> CONFIRMED
//	       \
//	        +--------> CANCELLED
//
// CONFIRMED and CANCELLED are terminal and mutually exclusive.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusLocked    Status = "LOCKED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// CancelReason records why a booking ended up CANCELLED.
type CancelReason string

const (
	ReasonUserInitiated      CancelReason = "user-initiated"
	ReasonPaymentFailed      CancelReason = "payment failed"
	ReasonPaymentAbandoned   CancelReason = "payment window abandoned"
	ReasonVerificationFailed CancelReason = "verification failed"
	ReasonSystemTimeout      CancelReason = "system timeout"
)

// Known reports whether the reason belongs to the fixed taxonomy.
// Caller-supplied reasons outside it fall back to user-initiated so
// arbitrary strings never reach the reason column.
func (r CancelReason) Known() bool {
	switch r {
	case ReasonUserInitiated, ReasonPaymentFailed, ReasonPaymentAbandoned,
		ReasonVerificationFailed, ReasonSystemTimeout:
		return true
	}
	return false
}

// Booking ties a user, a show, a seat selection and a quoted amount to
// one pass through the payment lifecycle.
type Booking struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ShowID   uuid.UUID `gorm:"type:uuid;index;not null" json:"show_id"`
	Status   Status    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Seats    []string  `gorm:"serializer:json;type:jsonb;not null" json:"seats"`
	Amount   float64   `gorm:"not null" json:"amount"`
	LockID   string    `gorm:"type:varchar(64);not null" json:"lock_id"`
	OrderID  *string   `gorm:"type:varchar(64);index" json:"order_id,omitempty"`
	Reason   *string   `gorm:"type:varchar(40)" json:"cancel_reason,omitempty"`
	// Mirrors the seat lock deadline so expiry survives the lock itself.
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BookingSeat is a sold seat of a confirmed booking. The partial unique
// index on (show_id, seat_label) where released_at is null is the hard
// guarantee that a seat is never sold twice.
type BookingSeat struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	ShowID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"show_id"`
	SeatLabel  string     `gorm:"type:varchar(8);not null" json:"seat_label"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Booking) TableName() string     { return "bookings" }
func (BookingSeat) TableName() string { return "booking_seats" }

// CreateBookingRequest opens a booking either from a lock already held
// (LockID) or by locking ShowID/Seats in the same call; a conflict in
// the latter case means no booking row is ever written. PayLater starts
// the booking in LOCKED instead of PENDING; the seats stay held until
// the lock deadline without an open checkout.
type CreateBookingRequest struct {
	LockID   string   `json:"lock_id"`
	ShowID   string   `json:"show_id"`
	Seats    []string `json:"seats" binding:"omitempty,max=10,dive,required"`
	PayLater bool     `json:"pay_later"`
}

// CancelBookingRequest optionally carries a caller-supplied reason
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// StatusResponse is what the reconciliation poller consumes
type StatusResponse struct {
	BookingID string    `json:"bookingId"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HistoryItem is a past booking with its fare split re-derived from the
// stored total.
type HistoryItem struct {
	BookingID string            `json:"bookingId"`
	ShowID    string            `json:"showId"`
	Status    Status            `json:"status"`
	Seats     []string          `json:"seats"`
	Amount    float64           `json:"amount"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	CreatedAt time.Time         `json:"createdAt"`
}
