package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GatewayOrder is the provider-side order a checkout runs against.
type GatewayOrder struct {
	OrderID   string
	PaymentID string
	Amount    float64
	Currency  string
}

// Gateway abstracts the payment provider. CreateOrder opens an order
// for the amount; VerifySignature checks the success-callback signature
// without a network round trip.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// SignPayload computes the callback signature the provider sends:
// hex(HMAC-SHA256(secret, "orderID|paymentID")).
func SignPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// RazorpayGateway talks to the Razorpay orders API. Amounts cross the
// wire in paise.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayGateway(keyID, keySecret, baseURL string) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*GatewayOrder, error) {
	payload := map[string]interface{}{
		"amount":   int64(amount * 100),
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	return &GatewayOrder{
		OrderID:  out.ID,
		Amount:   float64(out.Amount) / 100,
		Currency: out.Currency,
	}, nil
}

func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	expected := SignPayload(g.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// StubGateway issues locally generated orders and verifies signatures
// against its own secret. Used in development where no provider
// credentials exist; the lifecycle is identical to the real gateway.
type StubGateway struct {
	keySecret string
}

func NewStubGateway(keySecret string) *StubGateway {
	return &StubGateway{keySecret: keySecret}
}

func (g *StubGateway) CreateOrder(_ context.Context, amount float64, currency, _ string) (*GatewayOrder, error) {
	return &GatewayOrder{
		OrderID:   "order_" + uuid.New().String(),
		PaymentID: "pay_" + uuid.New().String(),
		Amount:    amount,
		Currency:  currency,
	}, nil
}

func (g *StubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	expected := SignPayload(g.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
