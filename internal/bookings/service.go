package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/catalog"
	"cinebook/internal/locks"
	"cinebook/internal/pricing"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotBookingOwner = errors.New("booking belongs to another user")
	ErrOrderMismatch   = errors.New("order does not belong to booking")

	// ErrInvalidTransition is wrapped with the from/to pair. Terminal
	// states never move again.
	ErrInvalidTransition = errors.New("invalid booking transition")

	ErrNoSeatsRequested = errors.New("either lock_id or show_id with seats is required")
)

// ShowSource resolves shows for quoting. Satisfied by catalog.Service.
type ShowSource interface {
	GetShow(ctx context.Context, showID string) (*catalog.Show, error)
}

// EventPublisher receives booking lifecycle notifications. Optional.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, booking *Booking)
	PublishBookingConfirmed(ctx context.Context, booking *Booking)
	PublishBookingCancelled(ctx context.Context, booking *Booking, reason CancelReason)
}

type Service interface {
	Create(ctx context.Context, userID string, req CreateBookingRequest) (*Booking, error)
	Get(ctx context.Context, userID, bookingID string) (*Booking, error)
	GetStatus(ctx context.Context, userID, bookingID string) (*StatusResponse, error)
	ListByUser(ctx context.Context, userID string) ([]HistoryItem, error)

	CancelByUser(ctx context.Context, userID, bookingID string, reason CancelReason) error

	// Lifecycle calls from the payment adapter and the sweeper.
	MarkPaymentInitiated(ctx context.Context, bookingID uuid.UUID, orderID string) error
	Confirm(ctx context.Context, bookingID uuid.UUID, orderID string) error
	Cancel(ctx context.Context, bookingID uuid.UUID, reason CancelReason) error
}

type service struct {
	repo   Repository
	locks  locks.Service
	shows  ShowSource
	events EventPublisher
	log    *logger.Logger
}

func NewService(repo Repository, lockService locks.Service, shows ShowSource, events EventPublisher, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		locks:  lockService,
		shows:  shows,
		events: events,
		log:    log,
	}
}

// Create turns an active seat lock into a PENDING booking. The amount
// is quoted here, once, and is authoritative for the whole lifecycle.
// Without a lock id the lock is acquired here; a conflict propagates
// and no booking row is persisted.
func (s *service) Create(ctx context.Context, userID string, req CreateBookingRequest) (*Booking, error) {
	lock, err := s.resolveLock(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	show, err := s.shows.GetShow(ctx, lock.ShowID)
	if err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	showID, err := uuid.Parse(lock.ShowID)
	if err != nil {
		return nil, fmt.Errorf("invalid show id: %w", err)
	}

	quote := pricing.Quote(show.BasePrice, len(lock.Seats))

	status := StatusPending
	if req.PayLater {
		status = StatusLocked
	}

	booking := &Booking{
		UserID:    uid,
		ShowID:    showID,
		Status:    status,
		Seats:     lock.Seats,
		Amount:    quote.Total,
		LockID:    lock.ID,
		ExpiresAt: lock.ExpiresAt,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), lock.ShowID, userID)
	if s.events != nil {
		s.events.PublishBookingCreated(ctx, booking)
	}

	return booking, nil
}

func (s *service) resolveLock(ctx context.Context, userID string, req CreateBookingRequest) (*locks.SeatLock, error) {
	if req.LockID != "" {
		lock, err := s.locks.Get(ctx, req.LockID)
		if err != nil {
			return nil, err
		}
		if lock.UserID != userID {
			return nil, locks.ErrNotLockOwner
		}
		return lock, nil
	}

	if req.ShowID == "" || len(req.Seats) == 0 {
		return nil, ErrNoSeatsRequested
	}
	return s.locks.Lock(ctx, userID, locks.LockRequest{
		ShowID: req.ShowID,
		Seats:  req.Seats,
	})
}

func (s *service) Get(ctx context.Context, userID, bookingID string) (*Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID.String() != userID {
		return nil, ErrNotBookingOwner
	}
	return booking, nil
}

// GetStatus is the reconciliation read. A non-terminal booking whose
// deadline passed is cancelled here, lazily, before the status is
// reported; pollers therefore never see a stale PENDING forever.
func (s *service) GetStatus(ctx context.Context, userID, bookingID string) (*StatusResponse, error) {
	booking, err := s.Get(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.Status.Terminal() && time.Now().After(booking.ExpiresAt) {
		if err := s.Cancel(ctx, booking.ID, ReasonSystemTimeout); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		if booking, err = s.load(ctx, bookingID); err != nil {
			return nil, err
		}
	}

	resp := &StatusResponse{
		BookingID: booking.ID.String(),
		Status:    booking.Status,
		ExpiresAt: booking.ExpiresAt,
	}
	if booking.Reason != nil {
		resp.Reason = *booking.Reason
	}
	return resp, nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]HistoryItem, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrBookingNotFound
	}

	bookings, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	items := make([]HistoryItem, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, HistoryItem{
			BookingID: b.ID.String(),
			ShowID:    b.ShowID.String(),
			Status:    b.Status,
			Seats:     b.Seats,
			Amount:    b.Amount,
			Breakdown: pricing.DeriveBreakdown(b.Amount),
			CreatedAt: b.CreatedAt,
		})
	}
	return items, nil
}

func (s *service) CancelByUser(ctx context.Context, userID, bookingID string, reason CancelReason) error {
	booking, err := s.Get(ctx, userID, bookingID)
	if err != nil {
		return err
	}
	if !reason.Known() {
		reason = ReasonUserInitiated
	}
	return s.Cancel(ctx, booking.ID, reason)
}

// MarkPaymentInitiated binds the payment order to the booking. The
// status is left alone: opening a checkout settles nothing. Valid from
// PENDING (pay-now) and LOCKED (pay-later); re-initiating rebinds the
// order so abandoned attempts never block a retry.
func (s *service) MarkPaymentInitiated(ctx context.Context, bookingID uuid.UUID, orderID string) error {
	return s.transition(ctx, bookingID, func(tx *gorm.DB, booking *Booking) error {
		switch booking.Status {
		case StatusPending, StatusLocked:
			booking.OrderID = &orderID
			return nil
		default:
			s.log.LogInvalidTransition(ctx, booking.ID.String(), string(booking.Status), "initiate-payment")
			return fmt.Errorf("%w: cannot initiate payment from %s", ErrInvalidTransition, booking.Status)
		}
	})
}

// Confirm finalizes a paid booking. Idempotent: confirming an already
// CONFIRMED booking is a no-op. The sold-seat rows are written in the
// same transaction that flips the status, so the partial unique index
// arbitrates any race the lock layer failed to.
func (s *service) Confirm(ctx context.Context, bookingID uuid.UUID, orderID string) error {
	var confirmed *Booking
	err := s.repo.Transition(ctx, bookingID, func(tx *gorm.DB, booking *Booking) error {
		if booking.Status == StatusConfirmed {
			return nil
		}
		if booking.Status == StatusCancelled {
			return s.invalidTransition(ctx, booking, StatusConfirmed)
		}
		if booking.OrderID == nil || *booking.OrderID != orderID {
			return ErrOrderMismatch
		}

		if err := s.repo.InsertSeats(tx, booking); err != nil {
			return fmt.Errorf("failed to record sold seats: %w", err)
		}

		now := time.Now()
		booking.Status = StatusConfirmed
		booking.ConfirmedAt = &now
		confirmed = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if confirmed == nil {
		return nil
	}

	s.releaseLock(ctx, confirmed.LockID, "booking confirmed")
	s.log.LogBookingConfirmed(ctx, confirmed.ID.String(), orderID)
	if s.events != nil {
		s.events.PublishBookingConfirmed(ctx, confirmed)
	}
	return nil
}

// Cancel moves a non-terminal booking to CANCELLED and frees its lock.
// Cancelling an already CANCELLED booking is a no-op; cancelling a
// CONFIRMED one fails.
func (s *service) Cancel(ctx context.Context, bookingID uuid.UUID, reason CancelReason) error {
	var cancelled *Booking
	err := s.repo.Transition(ctx, bookingID, func(tx *gorm.DB, booking *Booking) error {
		if booking.Status == StatusCancelled {
			return nil
		}
		if booking.Status == StatusConfirmed {
			return s.invalidTransition(ctx, booking, StatusCancelled)
		}

		now := time.Now()
		reasonStr := string(reason)
		booking.Status = StatusCancelled
		booking.Reason = &reasonStr
		booking.CancelledAt = &now
		cancelled = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if cancelled == nil {
		return nil
	}

	s.releaseLock(ctx, cancelled.LockID, string(reason))
	s.log.LogBookingCancelled(ctx, cancelled.ID.String(), string(reason))
	if s.events != nil {
		s.events.PublishBookingCancelled(ctx, cancelled, reason)
	}
	return nil
}

func (s *service) transition(ctx context.Context, bookingID uuid.UUID, fn func(tx *gorm.DB, booking *Booking) error) error {
	err := s.repo.Transition(ctx, bookingID, fn)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBookingNotFound
	}
	return err
}

func (s *service) load(ctx context.Context, bookingID string) (*Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

func (s *service) invalidTransition(ctx context.Context, booking *Booking, attempted Status) error {
	s.log.LogInvalidTransition(ctx, booking.ID.String(), string(booking.Status), string(attempted))
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, attempted)
}

// releaseLock is best effort: the lock may already be expired or gone.
func (s *service) releaseLock(ctx context.Context, lockID, reason string) {
	if lockID == "" {
		return
	}
	err := s.locks.Release(ctx, lockID, reason)
	if err != nil && !errors.Is(err, locks.ErrLockNotFound) && !errors.Is(err, locks.ErrLockExpired) {
		s.log.ErrorWithContext(ctx, "failed to release seat lock", err, map[string]interface{}{"lock_id": lockID})
	}
}
