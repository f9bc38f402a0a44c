package checkout

// Status is the lifecycle state of a payment intent as this service tracks
// it. Intents are never deleted, only transitioned.
type Status string

const (
	// StatusCreated means the pending payment is registered with the ledger.
	StatusCreated Status = "CREATED"
	// StatusAwaitingGateway means the hosted checkout has been dispatched and
	// the workflow is suspended on its resolution.
	StatusAwaitingGateway Status = "AWAITING_GATEWAY"
	// StatusConfirmed is the terminal success state.
	StatusConfirmed Status = "CONFIRMED"
	// StatusFailed is the terminal failure state for this submission.
	StatusFailed Status = "FAILED"
	// StatusCancelled marks a previously confirmed payment that was reversed.
	StatusCancelled Status = "CANCELLED"
)

var allowedTransitions = map[Status][]Status{
	StatusCreated:         {StatusAwaitingGateway, StatusFailed},
	StatusAwaitingGateway: {StatusConfirmed, StatusFailed},
	StatusConfirmed:       {StatusCancelled},
}

func allowedTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Intent is a payment transaction as seen by the submission workflow. Buyer
// fields hold the backend-canonical identity returned at intent creation;
// whatever the client believed beforehand is discarded.
type Intent struct {
	Reference   string `json:"reference"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	OrderID     *int64 `json:"orderId,omitempty"`
	BuyerName   string `json:"buyerName,omitempty"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`
	BuyerTel    string `json:"buyerTel,omitempty"`
	Status      Status `json:"status"`
}

func (i *Intent) transition(to Status) error {
	if !allowedTransition(i.Status, to) {
		return ErrInvalidTransition
	}
	i.Status = to
	return nil
}
