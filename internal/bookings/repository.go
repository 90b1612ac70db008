package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)

	// Transition loads the booking under a row lock, hands it to fn and
	// saves the mutated record in the same transaction. fn returning an
	// error rolls everything back. Concurrent transitions on one
	// booking serialize here, which is what keeps CONFIRMED and
	// CANCELLED mutually exclusive.
	Transition(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, booking *Booking) error) error

	// InsertSeats records sold seats inside the confirm transaction.
	InsertSeats(tx *gorm.DB, booking *Booking) error

	// BookedSeats returns which of the given labels are already sold.
	BookedSeats(ctx context.Context, showID string, seats []string) ([]string, error)

	// BookedSeatLabels returns every sold seat of the show.
	BookedSeatLabels(ctx context.Context, showID uuid.UUID) ([]string, error)

	// ListExpired returns non-terminal bookings whose deadline passed.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, booking *Booking) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(tx, &booking); err != nil {
			return err
		}
		return tx.Save(&booking).Error
	})
}

func (r *repository) InsertSeats(tx *gorm.DB, booking *Booking) error {
	seats := make([]BookingSeat, 0, len(booking.Seats))
	for _, label := range booking.Seats {
		seats = append(seats, BookingSeat{
			BookingID: booking.ID,
			ShowID:    booking.ShowID,
			SeatLabel: label,
		})
	}
	return tx.Create(&seats).Error
}

func (r *repository) BookedSeats(ctx context.Context, showID string, seats []string) ([]string, error) {
	var sold []string
	err := r.db.WithContext(ctx).
		Model(&BookingSeat{}).
		Where("show_id = ? AND seat_label IN ? AND released_at IS NULL", showID, seats).
		Pluck("seat_label", &sold).Error
	return sold, err
}

func (r *repository) BookedSeatLabels(ctx context.Context, showID uuid.UUID) ([]string, error) {
	var sold []string
	err := r.db.WithContext(ctx).
		Model(&BookingSeat{}).
		Where("show_id = ? AND released_at IS NULL", showID).
		Pluck("seat_label", &sold).Error
	return sold, err
}

func (r *repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at < ?", []Status{StatusPending, StatusLocked}, now).
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}
