package gateway

import "context"

// Config carries the store and channel credentials required to open the
// hosted checkout. Immutable once fetched.
type Config struct {
	StoreID    string `json:"storeId"`
	ChannelKey string `json:"channelKey"`
}

// Customer identifies the buyer as established by the backend ledger. Empty
// fields are omitted from the checkout request rather than sent as empty
// strings.
type Customer struct {
	FullName    string `json:"fullName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Request describes a hosted checkout invocation. PaymentID carries the
// merchant-generated transaction reference and is echoed back by the gateway.
type Request struct {
	StoreID     string   `json:"storeId"`
	ChannelKey  string   `json:"channelKey"`
	PaymentID   string   `json:"paymentId"`
	OrderName   string   `json:"orderName"`
	TotalAmount int64    `json:"totalAmount"`
	Currency    string   `json:"currency"`
	PayMethod   string   `json:"payMethod"`
	Customer    Customer `json:"customer"`
}

// Outcome is the resolved result of one checkout invocation. Exactly one of
// the two shapes applies: a failure carries a defined Code and Message, a
// success optionally carries any of the three identifier fields. Different
// providers populate different identifiers, so none of them can be relied on
// individually.
type Outcome struct {
	ID        string `json:"id,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	TxID      string `json:"txId,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Failed reports whether the gateway returned the failure shape.
func (o Outcome) Failed() bool {
	return o.Code != ""
}

// Invoker opens the hosted checkout and blocks until it resolves or the buyer
// abandons it. The invoker performs no identifier resolution; callers decide
// which outcome field is authoritative.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Outcome, error)
}
