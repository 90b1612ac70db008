package payments

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the payment order lifecycle. Orders start created and
// end verified, failed or abandoned.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderVerified  OrderStatus = "verified"
	OrderFailed    OrderStatus = "failed"
	OrderAbandoned OrderStatus = "abandoned"
)

// Terminal reports whether the order can no longer change state.
func (s OrderStatus) Terminal() bool {
	return s == OrderVerified || s == OrderFailed || s == OrderAbandoned
}

// PaymentOrder is one pass through the gateway checkout for a booking.
// A booking may accumulate several orders (retries); at most one ends
// up verified.
type PaymentOrder struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID   `gorm:"type:uuid;index;not null" json:"booking_id"`
	OrderID   string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_id"`
	PaymentID *string     `gorm:"type:varchar(64)" json:"payment_id,omitempty"`
	Amount    float64     `gorm:"not null" json:"amount"`
	Currency  string      `gorm:"type:varchar(8);not null" json:"currency"`
	Status    OrderStatus `gorm:"type:varchar(16);not null;default:'created';index" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (PaymentOrder) TableName() string { return "payment_orders" }

// CreateOrderRequest opens a payment window for a booking
type CreateOrderRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
}

// CheckoutOrder is the order block the storefront hands to the checkout
// widget.
type CheckoutOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CreateOrderResponse mirrors the shape the checkout widget expects.
type CreateOrderResponse struct {
	Key       string        `json:"key"`
	Order     CheckoutOrder `json:"order"`
	PaymentID string        `json:"paymentId"`
}

// VerifyRequest is the checkout success callback payload
type VerifyRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// VerifyResponse reports the outcome of signature verification
type VerifyResponse struct {
	BookingID string `json:"bookingId"`
	OrderID   string `json:"orderId"`
	Verified  bool   `json:"verified"`
}
