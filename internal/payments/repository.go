package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, order *PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*PaymentOrder, error)
	GetOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*PaymentOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus, paymentID *string) error

	// ListStale returns open orders created before the cutoff.
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]PaymentOrder, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, order *PaymentOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*PaymentOrder, error) {
	var order PaymentOrder
	if err := r.db.WithContext(ctx).First(&order, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*PaymentOrder, error) {
	var order PaymentOrder
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, OrderCreated).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus, paymentID *string) error {
	updates := map[string]interface{}{"status": status}
	if paymentID != nil {
		updates["payment_id"] = *paymentID
	}
	return r.db.WithContext(ctx).
		Model(&PaymentOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]PaymentOrder, error) {
	var orders []PaymentOrder
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", OrderCreated, cutoff).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
