package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeOrderRepo is an in-memory Repository.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*PaymentOrder // keyed by gateway order id
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*PaymentOrder)}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	copied := *order
	f.orders[order.OrderID] = &copied
	return nil
}

func (f *fakeOrderRepo) GetByOrderID(_ context.Context, orderID string) (*PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) GetOpenByBooking(_ context.Context, bookingID uuid.UUID) (*PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.BookingID == bookingID && order.Status == OrderCreated {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status OrderStatus, paymentID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.ID == id {
			order.Status = status
			if paymentID != nil {
				order.PaymentID = paymentID
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) ListStale(_ context.Context, cutoff time.Time, limit int) ([]PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []PaymentOrder
	for _, order := range f.orders {
		if order.Status == OrderCreated && order.CreatedAt.Before(cutoff) {
			out = append(out, *order)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// fakeBookingService records lifecycle calls without a database.
type fakeBookingService struct {
	mu        sync.Mutex
	booking   *bookings.Booking
	initiated []string
	confirmed []string
	cancelled []bookings.CancelReason
}

func newFakeBookingService(userID string) *fakeBookingService {
	uid, _ := uuid.Parse(userID)
	return &fakeBookingService{
		booking: &bookings.Booking{
			ID:        uuid.New(),
			UserID:    uid,
			ShowID:    uuid.New(),
			Status:    bookings.StatusPending,
			Seats:     []string{"A1", "A2"},
			Amount:    404,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (f *fakeBookingService) Create(context.Context, string, bookings.CreateBookingRequest) (*bookings.Booking, error) {
	panic("not used")
}

func (f *fakeBookingService) Get(_ context.Context, userID, bookingID string) (*bookings.Booking, error) {
	if bookingID != f.booking.ID.String() {
		return nil, bookings.ErrBookingNotFound
	}
	if userID != f.booking.UserID.String() {
		return nil, bookings.ErrNotBookingOwner
	}
	copied := *f.booking
	return &copied, nil
}

func (f *fakeBookingService) GetStatus(context.Context, string, string) (*bookings.StatusResponse, error) {
	panic("not used")
}

func (f *fakeBookingService) ListByUser(context.Context, string) ([]bookings.HistoryItem, error) {
	panic("not used")
}

func (f *fakeBookingService) CancelByUser(context.Context, string, string, bookings.CancelReason) error {
	panic("not used")
}

func (f *fakeBookingService) MarkPaymentInitiated(_ context.Context, bookingID uuid.UUID, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.booking.OrderID = &orderID
	f.initiated = append(f.initiated, orderID)
	return nil
}

func (f *fakeBookingService) Confirm(_ context.Context, bookingID uuid.UUID, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.booking.Status == bookings.StatusCancelled {
		return bookings.ErrInvalidTransition
	}
	f.booking.Status = bookings.StatusConfirmed
	f.confirmed = append(f.confirmed, orderID)
	return nil
}

func (f *fakeBookingService) Cancel(_ context.Context, bookingID uuid.UUID, reason bookings.CancelReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.booking.Status == bookings.StatusConfirmed {
		return bookings.ErrInvalidTransition
	}
	f.booking.Status = bookings.StatusCancelled
	f.cancelled = append(f.cancelled, reason)
	return nil
}

func paymentTestConfig() *config.PaymentConfig {
	return &config.PaymentConfig{
		KeyID:          "rzp_test_key",
		KeySecret:      "test_secret",
		Currency:       "INR",
		AbandonTimeout: 15 * time.Minute,
		SweepInterval:  time.Minute,
	}
}

func newPaymentFixture(t *testing.T) (*fakeOrderRepo, *fakeBookingService, Service, string) {
	t.Helper()
	userID := uuid.New().String()
	repo := newFakeOrderRepo()
	bookingSvc := newFakeBookingService(userID)
	svc := NewService(repo, NewStubGateway("test_secret"), bookingSvc, paymentTestConfig(), logger.GetDefault())
	return repo, bookingSvc, svc, userID
}

func TestCreateOrderOpensPaymentWindow(t *testing.T) {
	repo, bookingSvc, svc, userID := newPaymentFixture(t)
	ctx := context.Background()

	resp, err := svc.CreateOrder(ctx, userID, CreateOrderRequest{BookingID: bookingSvc.booking.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, "rzp_test_key", resp.Key)
	assert.Equal(t, 404.0, resp.Order.Amount)
	assert.Equal(t, "INR", resp.Order.Currency)
	assert.NotEmpty(t, resp.Order.ID)
	assert.NotEmpty(t, resp.PaymentID)

	assert.Equal(t, []string{resp.Order.ID}, bookingSvc.initiated)

	order, err := repo.GetByOrderID(ctx, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderCreated, order.Status)
}

func TestCreateOrderRejectsForeignBooking(t *testing.T) {
	_, bookingSvc, svc, _ := newPaymentFixture(t)

	_, err := svc.CreateOrder(context.Background(), uuid.New().String(),
		CreateOrderRequest{BookingID: bookingSvc.booking.ID.String()})
	assert.ErrorIs(t, err, bookings.ErrNotBookingOwner)
}

func TestVerifyConfirmsBookingOnValidSignature(t *testing.T) {
	repo, bookingSvc, svc, userID := newPaymentFixture(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, userID, CreateOrderRequest{BookingID: bookingSvc.booking.ID.String()})
	require.NoError(t, err)

	resp, err := svc.Verify(ctx, userID, VerifyRequest{
		OrderID:   created.Order.ID,
		PaymentID: created.PaymentID,
		Signature: SignPayload("test_secret", created.Order.ID, created.PaymentID),
	})
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	assert.Equal(t, []string{created.Order.ID}, bookingSvc.confirmed)

	order, err := repo.GetByOrderID(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderVerified, order.Status)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, created.PaymentID, *order.PaymentID)
}

func TestVerifyIsIdempotentOnDuplicateCallback(t *testing.T) {
	_, bookingSvc, svc, userID := newPaymentFixture(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, userID, CreateOrderRequest{BookingID: bookingSvc.booking.ID.String()})
	require.NoError(t, err)

	req := VerifyRequest{
		OrderID:   created.Order.ID,
		PaymentID: created.PaymentID,
		Signature: SignPayload("test_secret", created.Order.ID, created.PaymentID),
	}
	_, err = svc.Verify(ctx, userID, req)
	require.NoError(t, err)

	resp, err := svc.Verify(ctx, userID, req)
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	assert.Len(t, bookingSvc.confirmed, 1)
}

func TestVerifyCancelsBookingOnBadSignature(t *testing.T) {
	repo, bookingSvc, svc, userID := newPaymentFixture(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, userID, CreateOrderRequest{BookingID: bookingSvc.booking.ID.String()})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, userID, VerifyRequest{
		OrderID:   created.Order.ID,
		PaymentID: created.PaymentID,
		Signature: "forged",
	})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	assert.Equal(t, []bookings.CancelReason{bookings.ReasonVerificationFailed}, bookingSvc.cancelled)
	assert.Empty(t, bookingSvc.confirmed)

	order, err := repo.GetByOrderID(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderFailed, order.Status)
}

func TestVerifyUnknownOrder(t *testing.T) {
	_, _, svc, userID := newPaymentFixture(t)

	_, err := svc.Verify(context.Background(), userID, VerifyRequest{
		OrderID:   "order_missing",
		PaymentID: "pay_1",
		Signature: "sig",
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAbandonCancelsBookingAndClosesOrder(t *testing.T) {
	repo, bookingSvc, svc, userID := newPaymentFixture(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, userID, CreateOrderRequest{BookingID: bookingSvc.booking.ID.String()})
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(ctx, userID, bookingSvc.booking.ID.String()))

	assert.Equal(t, []bookings.CancelReason{bookings.ReasonPaymentAbandoned}, bookingSvc.cancelled)

	order, err := repo.GetByOrderID(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderAbandoned, order.Status)
}

func TestAbandonStaleSweepsOldOpenOrders(t *testing.T) {
	repo, bookingSvc, svc, userID := newPaymentFixture(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, userID, CreateOrderRequest{BookingID: bookingSvc.booking.ID.String()})
	require.NoError(t, err)

	// Backdate the order past the abandonment timeout.
	repo.mu.Lock()
	repo.orders[created.Order.ID].CreatedAt = time.Now().Add(-time.Hour)
	repo.mu.Unlock()

	closed, err := svc.AbandonStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	assert.Equal(t, []bookings.CancelReason{bookings.ReasonPaymentAbandoned}, bookingSvc.cancelled)

	order, err := repo.GetByOrderID(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderAbandoned, order.Status)
}
