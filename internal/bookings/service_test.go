package bookings

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cinebook/internal/catalog"
	"cinebook/internal/locks"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository with the same transition and
// sold-seat semantics as the real one, including the unique booked-seat
// constraint.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*Booking
	seats    map[string]uuid.UUID // "showID|label" -> booking id
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: make(map[uuid.UUID]*Booking),
		seats:    make(map[string]uuid.UUID),
	}
}

func seatKey(showID uuid.UUID, label string) string {
	return showID.String() + "|" + label
}

func (f *fakeRepo) Create(_ context.Context, booking *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) Transition(_ context.Context, id uuid.UUID, fn func(tx *gorm.DB, booking *Booking) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *booking
	if err := fn(nil, &copied); err != nil {
		return err
	}
	f.bookings[id] = &copied
	return nil
}

func (f *fakeRepo) InsertSeats(_ *gorm.DB, booking *Booking) error {
	// Caller already holds f.mu via Transition.
	for _, label := range booking.Seats {
		if _, taken := f.seats[seatKey(booking.ShowID, label)]; taken {
			return fmt.Errorf("duplicate key value violates unique constraint %q", "uniq_booked_seat_per_show")
		}
	}
	for _, label := range booking.Seats {
		f.seats[seatKey(booking.ShowID, label)] = booking.ID
	}
	return nil
}

func (f *fakeRepo) BookedSeats(_ context.Context, showID string, seats []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := uuid.Parse(showID)
	if err != nil {
		return nil, err
	}
	var sold []string
	for _, label := range seats {
		if _, ok := f.seats[seatKey(id, label)]; ok {
			sold = append(sold, label)
		}
	}
	return sold, nil
}

func (f *fakeRepo) BookedSeatLabels(_ context.Context, showID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := showID.String() + "|"
	var sold []string
	for key := range f.seats {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			sold = append(sold, key[len(prefix):])
		}
	}
	return sold, nil
}

func (f *fakeRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if (b.Status == StatusPending || b.Status == StatusLocked) && b.ExpiresAt.Before(now) {
			out = append(out, *b)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeShows struct {
	basePrice float64
}

func (f *fakeShows) GetShow(_ context.Context, showID string) (*catalog.Show, error) {
	id, err := uuid.Parse(showID)
	if err != nil {
		return nil, catalog.ErrShowNotFound
	}
	return &catalog.Show{
		ID:        id,
		HallID:    uuid.New(),
		BasePrice: f.basePrice,
	}, nil
}

type fixture struct {
	repo    *fakeRepo
	locks   locks.Service
	service Service
	userID  string
	showID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	lockService := locks.NewService(locks.NewMemoryStore(), repo, nil, time.Minute, logger.GetDefault())
	service := NewService(repo, lockService, &fakeShows{basePrice: 150}, nil, logger.GetDefault())
	return &fixture{
		repo:    repo,
		locks:   lockService,
		service: service,
		userID:  uuid.New().String(),
		showID:  uuid.New().String(),
	}
}

func (fx *fixture) lockSeats(t *testing.T, seats ...string) *locks.SeatLock {
	t.Helper()
	lock, err := fx.locks.Lock(context.Background(), fx.userID, locks.LockRequest{
		ShowID: fx.showID,
		Seats:  seats,
	})
	require.NoError(t, err)
	return lock
}

func (fx *fixture) createBooking(t *testing.T, seats ...string) *Booking {
	t.Helper()
	lock := fx.lockSeats(t, seats...)
	booking, err := fx.service.Create(context.Background(), fx.userID, CreateBookingRequest{LockID: lock.ID})
	require.NoError(t, err)
	return booking
}

func (fx *fixture) initiatePayment(t *testing.T, booking *Booking) string {
	t.Helper()
	orderID := "order_" + uuid.New().String()
	require.NoError(t, fx.service.MarkPaymentInitiated(context.Background(), booking.ID, orderID))
	return orderID
}

func TestCreateQuotesAmountFromLock(t *testing.T) {
	fx := newFixture(t)

	booking := fx.createBooking(t, "A1", "A2")

	assert.Equal(t, StatusPending, booking.Status)
	assert.Equal(t, []string{"A1", "A2"}, booking.Seats)
	// 2 x 150 base + 30 convenience + 59 GST + 15 entertainment tax
	assert.Equal(t, 404.0, booking.Amount)
}

func TestCreateAcquiresLockWhenNoneGiven(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking, err := fx.service.Create(ctx, fx.userID, CreateBookingRequest{
		ShowID: fx.showID,
		Seats:  []string{"C1", "C2"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, booking.Status)
	assert.NotEmpty(t, booking.LockID)

	lock, err := fx.locks.Get(ctx, booking.LockID)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, lock.Seats)
}

func TestCreateConflictLeavesNoBooking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.lockSeats(t, "C1")

	otherUser := uuid.New().String()
	_, err := fx.service.Create(ctx, otherUser, CreateBookingRequest{
		ShowID: fx.showID,
		Seats:  []string{"C1", "C2"},
	})
	seats, conflict := locks.IsConflict(err)
	require.True(t, conflict)
	assert.Equal(t, []string{"C1"}, seats)

	uid, err := uuid.Parse(otherUser)
	require.NoError(t, err)
	items, err := fx.repo.ListByUser(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateRequiresLockOrSeats(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.Create(context.Background(), fx.userID, CreateBookingRequest{})
	assert.ErrorIs(t, err, ErrNoSeatsRequested)
}

func TestCreatePayLaterStartsLocked(t *testing.T) {
	fx := newFixture(t)
	lock := fx.lockSeats(t, "B1", "B2")

	booking, err := fx.service.Create(context.Background(), fx.userID, CreateBookingRequest{
		LockID:   lock.ID,
		PayLater: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, booking.Status)

	// Pay-later joins the same machine: payment can still be initiated
	// and the booking confirmed.
	orderID := fx.initiatePayment(t, booking)

	status, err := fx.service.GetStatus(context.Background(), fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, status.Status)

	require.NoError(t, fx.service.Confirm(context.Background(), booking.ID, orderID))
}

func TestCreateRejectsForeignLock(t *testing.T) {
	fx := newFixture(t)
	lock := fx.lockSeats(t, "A1")

	_, err := fx.service.Create(context.Background(), uuid.New().String(), CreateBookingRequest{LockID: lock.ID})
	assert.ErrorIs(t, err, locks.ErrNotLockOwner)
}

func TestCreateRejectsUnknownLock(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.Create(context.Background(), fx.userID, CreateBookingRequest{LockID: "missing"})
	assert.ErrorIs(t, err, locks.ErrLockNotFound)
}

func TestInitiatePaymentKeepsStatusPending(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1", "A2")
	orderID := fx.initiatePayment(t, booking)

	// Opening a checkout settles nothing; only Confirm moves the
	// status.
	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status.Status)

	reloaded, err := fx.service.Get(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	require.NotNil(t, reloaded.OrderID)
	assert.Equal(t, orderID, *reloaded.OrderID)
}

func TestInitiatePaymentRejectedOnTerminalBooking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	require.NoError(t, fx.service.Cancel(ctx, booking.ID, ReasonUserInitiated))

	err := fx.service.MarkPaymentInitiated(ctx, booking.ID, "order_late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmMarksSeatsSoldAndReleasesLock(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1", "A2")
	orderID := fx.initiatePayment(t, booking)

	require.NoError(t, fx.service.Confirm(ctx, booking.ID, orderID))

	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status.Status)

	sold, err := fx.repo.BookedSeats(ctx, fx.showID, []string{"A1", "A2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2"}, sold)

	// The lock is gone; the sold-seat records now guard the seats.
	_, err = fx.locks.Get(ctx, booking.LockID)
	assert.ErrorIs(t, err, locks.ErrLockNotFound)

	// Relocking a sold seat conflicts at the booked-seat pre-check.
	_, err = fx.locks.Lock(ctx, uuid.New().String(), locks.LockRequest{ShowID: fx.showID, Seats: []string{"A1"}})
	_, conflict := locks.IsConflict(err)
	assert.True(t, conflict)
}

func TestConfirmIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	orderID := fx.initiatePayment(t, booking)

	require.NoError(t, fx.service.Confirm(ctx, booking.ID, orderID))
	require.NoError(t, fx.service.Confirm(ctx, booking.ID, orderID))

	sold, err := fx.repo.BookedSeatLabels(ctx, booking.ShowID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, sold)
}

func TestConfirmRequiresMatchingOrder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	fx.initiatePayment(t, booking)

	assert.ErrorIs(t, fx.service.Confirm(ctx, booking.ID, "order_other"), ErrOrderMismatch)
}

func TestConfirmAfterCancelFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	orderID := fx.initiatePayment(t, booking)

	require.NoError(t, fx.service.Cancel(ctx, booking.ID, ReasonUserInitiated))
	assert.ErrorIs(t, fx.service.Confirm(ctx, booking.ID, orderID), ErrInvalidTransition)

	// No seats were sold by the rejected confirm.
	sold, err := fx.repo.BookedSeatLabels(ctx, booking.ShowID)
	require.NoError(t, err)
	assert.Empty(t, sold)
}

func TestCancelAfterConfirmFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	orderID := fx.initiatePayment(t, booking)

	require.NoError(t, fx.service.Confirm(ctx, booking.ID, orderID))
	assert.ErrorIs(t, fx.service.Cancel(ctx, booking.ID, ReasonUserInitiated), ErrInvalidTransition)

	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status.Status)
}

func TestCancelIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	require.NoError(t, fx.service.Cancel(ctx, booking.ID, ReasonPaymentAbandoned))
	require.NoError(t, fx.service.Cancel(ctx, booking.ID, ReasonUserInitiated))

	// First reason sticks.
	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status.Status)
	assert.Equal(t, string(ReasonPaymentAbandoned), status.Reason)
}

func TestCancelByUserNormalizesUnknownReason(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	longReason := CancelReason("changed my mind about this whole evening, several times over")
	require.NoError(t, fx.service.CancelByUser(ctx, fx.userID, booking.ID.String(), longReason))

	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status.Status)
	assert.Equal(t, string(ReasonUserInitiated), status.Reason)
}

func TestCancelByUserKeepsKnownReason(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	require.NoError(t, fx.service.CancelByUser(ctx, fx.userID, booking.ID.String(), ReasonPaymentFailed))

	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, string(ReasonPaymentFailed), status.Reason)
}

func TestCancelFreesSeatsForOthers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1", "A2")
	require.NoError(t, fx.service.Cancel(ctx, booking.ID, ReasonVerificationFailed))

	_, err := fx.locks.Lock(ctx, uuid.New().String(), locks.LockRequest{ShowID: fx.showID, Seats: []string{"A1", "A2"}})
	assert.NoError(t, err)
}

func TestGetStatusCancelsExpiredBooking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")

	// Backdate the deadline; the next status read must observe the
	// timeout lazily.
	require.NoError(t, fx.repo.Transition(ctx, booking.ID, func(_ *gorm.DB, b *Booking) error {
		b.ExpiresAt = time.Now().Add(-time.Second)
		return nil
	}))

	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status.Status)
	assert.Equal(t, string(ReasonSystemTimeout), status.Reason)
}

func TestGetStatusLeavesTerminalStatesAlone(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	orderID := fx.initiatePayment(t, booking)
	require.NoError(t, fx.service.Confirm(ctx, booking.ID, orderID))

	require.NoError(t, fx.repo.Transition(ctx, booking.ID, func(_ *gorm.DB, b *Booking) error {
		b.ExpiresAt = time.Now().Add(-time.Hour)
		return nil
	}))

	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status.Status)
}

func TestGetEnforcesOwnership(t *testing.T) {
	fx := newFixture(t)
	booking := fx.createBooking(t, "A1")

	_, err := fx.service.Get(context.Background(), uuid.New().String(), booking.ID.String())
	assert.ErrorIs(t, err, ErrNotBookingOwner)
}

func TestListByUserDerivesBreakdown(t *testing.T) {
	fx := newFixture(t)
	booking := fx.createBooking(t, "A1", "A2")

	items, err := fx.service.ListByUser(context.Background(), fx.userID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, booking.ID.String(), item.BookingID)
	assert.Equal(t, 404.0, item.Amount)
	assert.Equal(t, 300.0, item.Breakdown.Base)
	assert.Equal(t, item.Amount, item.Breakdown.Total)
}

func TestSweeperCancelsExpiredBookings(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking := fx.createBooking(t, "A1")
	require.NoError(t, fx.repo.Transition(ctx, booking.ID, func(_ *gorm.DB, b *Booking) error {
		b.ExpiresAt = time.Now().Add(-time.Minute)
		return nil
	}))

	expired, err := fx.repo.ListExpired(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)

	require.NoError(t, fx.service.Cancel(ctx, expired[0].ID, ReasonSystemTimeout))

	status, err := fx.service.GetStatus(ctx, fx.userID, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status.Status)
	assert.Equal(t, string(ReasonSystemTimeout), status.Reason)
}
