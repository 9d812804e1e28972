// Package payment wraps the Razorpay gateway behind a small interface so
// handlers and tests never talk to the SDK directly.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// rupeePaiseRate is the multiplier applied to client amounts before they
// are sent to the gateway: the SPA submits amounts in USD and Razorpay
// bills in INR paise.
const rupeePaiseRate = 87

// Order is the subset of the remote order the API exposes to clients.
type Order struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway creates remote orders and verifies payment signatures.
type Gateway interface {
	CreateOrder(amount float64, currency string) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayGateway is the production Gateway backed by the official SDK.
type RazorpayGateway struct {
	client *razorpay.Client
	secret string
}

// NewRazorpayGateway builds a gateway client from the configured key pair.
func NewRazorpayGateway(key, secret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(key, secret), secret: secret}
}

// CreateOrder registers an order with the gateway and returns its id,
// billed amount and currency.  There is no idempotency key: retrying after
// a client-side failure creates a second remote order.
func (g *RazorpayGateway) CreateOrder(amount float64, currency string) (Order, error) {
	if currency == "" {
		currency = "INR"
	}
	data := map[string]interface{}{
		"amount":          int64(amount * rupeePaiseRate),
		"currency":        currency,
		"payment_capture": 1,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return Order{}, errors.New("create order: gateway response missing id")
	}
	o := Order{ID: id, Currency: currency}
	if amt, ok := body["amount"].(float64); ok {
		o.Amount = int64(amt)
	}
	if cur, ok := body["currency"].(string); ok && cur != "" {
		o.Currency = cur
	}
	return o, nil
}

// VerifySignature checks the gateway checksum the client hands back after a
// successful checkout: HMAC-SHA256 over "orderID|paymentID" keyed with the
// API secret, hex encoded.  Comparison is constant time.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(g.secret, orderID, paymentID, signature)
}

// VerifySignature is the bare checksum check, exported for tests and for
// callers that hold only the secret.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
