package database

import (
	"cinebook/internal/auth"
	"cinebook/internal/bookings"
	"cinebook/internal/catalog"
	"cinebook/internal/payments"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&auth.User{},
		&catalog.Movie{},
		&catalog.Theatre{},
		&catalog.Hall{},
		&catalog.Seat{},
		&catalog.Show{},
		&bookings.Booking{},
		&bookings.BookingSeat{},
		&payments.PaymentOrder{},
	); err != nil {
		return err
	}
	return migrateConstraints(db)
}

// migrateConstraints adds constraints the auto-migration cannot express.
// The unique index below is the database-level backstop for the invariant
// that a seat is booked for a show by at most one non-cancelled booking.
func migrateConstraints(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_booked_seat_per_show
		ON booking_seats (show_id, seat_label)
		WHERE released_at IS NULL;
	`).Error
}
