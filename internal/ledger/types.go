package ledger

import (
	"encoding/json"
	"time"
)

// Envelope is the wrapper the backend puts around every response body. Data
// is unwrapped before results reach callers.
type Envelope struct {
	Code    int             `json:"code"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// PaymentRecord is a payment as the backend ledger knows it. PaymentID is the
// gateway-assigned identifier (empty until the gateway has seen the payment);
// MerchantUID is the merchant-generated transaction reference.
type PaymentRecord struct {
	ID          int64      `json:"id"`
	PaymentID   string     `json:"paymentId"`
	MerchantUID string     `json:"merchantUid"`
	OrderID     *int64     `json:"orderId,omitempty"`
	Name        string     `json:"name"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	BuyerName   string     `json:"buyerName"`
	BuyerEmail  string     `json:"buyerEmail"`
	BuyerTel    string     `json:"buyerTel"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// CreateIntentParams is the request body for registering a pending payment.
// Buyer identity is intentionally absent: the backend resolves it from the
// authenticated user and its response is authoritative.
type CreateIntentParams struct {
	MerchantUID string `json:"merchantUid"`
	Amount      int64  `json:"amount"`
	Name        string `json:"name"`
	OrderID     *int64 `json:"orderId,omitempty"`
}

// CancelResult reports the backend's view of a completed cancellation.
type CancelResult struct {
	PaymentID    string `json:"paymentId"`
	MerchantUID  string `json:"merchantUid"`
	Status       string `json:"status"`
	CancelAmount int64  `json:"cancelAmount"`
	Reason       string `json:"reason"`
}
