package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"
	"cinebook/pkg/logger"

	"gorm.io/gorm"
)

// swappable for tests
var timeNow = time.Now

var (
	ErrOrderNotFound      = errors.New("payment order not found")
	ErrVerificationFailed = errors.New("payment signature verification failed")
	ErrPaymentNotAllowed  = errors.New("booking is not payable in its current state")
)

type Service interface {
	// CreateOrder opens a payment window for a booking and binds the
	// gateway order to it; the booking status does not change.
	CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*CreateOrderResponse, error)

	// Verify checks the checkout callback signature. A valid signature
	// confirms the booking; an invalid one cancels it.
	Verify(ctx context.Context, userID string, req VerifyRequest) (*VerifyResponse, error)

	// Abandon closes the payment window without a callback. The
	// checkout was dismissed; the booking cancels.
	Abandon(ctx context.Context, userID, bookingID string) error

	// AbandonStale sweeps open orders older than the abandonment
	// timeout. Returns how many were closed.
	AbandonStale(ctx context.Context) (int, error)
}

type service struct {
	repo     Repository
	gateway  Gateway
	bookings bookings.Service
	cfg      *config.PaymentConfig
	log      *logger.Logger
}

func NewService(repo Repository, gateway Gateway, bookingService bookings.Service, cfg *config.PaymentConfig, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		gateway:  gateway,
		bookings: bookingService,
		cfg:      cfg,
		log:      log,
	}
}

func (s *service) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*CreateOrderResponse, error) {
	booking, err := s.bookings.Get(ctx, userID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, ErrPaymentNotAllowed
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, booking.Amount, s.cfg.Currency, booking.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	order := &PaymentOrder{
		BookingID: booking.ID,
		OrderID:   gatewayOrder.OrderID,
		Amount:    booking.Amount,
		Currency:  gatewayOrder.Currency,
		Status:    OrderCreated,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist payment order: %w", err)
	}

	if err := s.bookings.MarkPaymentInitiated(ctx, booking.ID, order.OrderID); err != nil {
		return nil, err
	}

	s.log.InfoWithContext(ctx, "payment order created", map[string]interface{}{
		"booking_id": booking.ID.String(),
		"order_id":   order.OrderID,
		"amount":     order.Amount,
	})

	return &CreateOrderResponse{
		Key: s.cfg.KeyID,
		Order: CheckoutOrder{
			ID:       order.OrderID,
			Amount:   order.Amount,
			Currency: order.Currency,
		},
		PaymentID: gatewayOrder.PaymentID,
	}, nil
}

func (s *service) Verify(ctx context.Context, userID string, req VerifyRequest) (*VerifyResponse, error) {
	order, err := s.loadOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	// Ownership check runs through the booking.
	booking, err := s.bookings.Get(ctx, userID, order.BookingID.String())
	if err != nil {
		return nil, err
	}

	if order.Status == OrderVerified {
		// Duplicate callback; confirm is idempotent too.
		return &VerifyResponse{
			BookingID: booking.ID.String(),
			OrderID:   order.OrderID,
			Verified:  true,
		}, nil
	}
	if order.Status.Terminal() {
		return nil, ErrPaymentNotAllowed
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		if err := s.repo.UpdateStatus(ctx, order.ID, OrderFailed, nil); err != nil {
			return nil, err
		}
		if err := s.bookings.Cancel(ctx, order.BookingID, bookings.ReasonVerificationFailed); err != nil &&
			!errors.Is(err, bookings.ErrInvalidTransition) {
			return nil, err
		}
		s.log.WarnContext(ctx, "payment verification failed",
			"booking_id", order.BookingID.String(), "order_id", order.OrderID)
		return nil, ErrVerificationFailed
	}

	if err := s.bookings.Confirm(ctx, order.BookingID, order.OrderID); err != nil {
		// Lost the race against a cancel; the money side needs manual
		// follow-up, the order records the failure.
		if errors.Is(err, bookings.ErrInvalidTransition) {
			_ = s.repo.UpdateStatus(ctx, order.ID, OrderFailed, &req.PaymentID)
		}
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, OrderVerified, &req.PaymentID); err != nil {
		return nil, err
	}

	return &VerifyResponse{
		BookingID: booking.ID.String(),
		OrderID:   order.OrderID,
		Verified:  true,
	}, nil
}

func (s *service) Abandon(ctx context.Context, userID, bookingID string) error {
	booking, err := s.bookings.Get(ctx, userID, bookingID)
	if err != nil {
		return err
	}

	if order, err := s.repo.GetOpenByBooking(ctx, booking.ID); err == nil {
		if err := s.repo.UpdateStatus(ctx, order.ID, OrderAbandoned, nil); err != nil {
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load open order: %w", err)
	}

	err = s.bookings.Cancel(ctx, booking.ID, bookings.ReasonPaymentAbandoned)
	if err != nil && !errors.Is(err, bookings.ErrInvalidTransition) {
		return err
	}
	return nil
}

func (s *service) AbandonStale(ctx context.Context) (int, error) {
	cutoff := timeNow().Add(-s.cfg.AbandonTimeout)
	stale, err := s.repo.ListStale(ctx, cutoff, 100)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, order := range stale {
		if err := s.repo.UpdateStatus(ctx, order.ID, OrderAbandoned, nil); err != nil {
			s.log.ErrorWithContext(ctx, "failed to abandon stale order", err, map[string]interface{}{
				"order_id": order.OrderID,
			})
			continue
		}
		if err := s.bookings.Cancel(ctx, order.BookingID, bookings.ReasonPaymentAbandoned); err != nil &&
			!errors.Is(err, bookings.ErrInvalidTransition) {
			s.log.ErrorWithContext(ctx, "failed to cancel abandoned booking", err, map[string]interface{}{
				"booking_id": order.BookingID.String(),
			})
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *service) loadOrder(ctx context.Context, orderID string) (*PaymentOrder, error) {
	order, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load payment order: %w", err)
	}
	return order, nil
}
