package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Hosted drives a hosted checkout page over the gateway's REST API: it opens
// a checkout session, then polls until the buyer completes or abandons it.
// The poll has no overall deadline on purpose; the session lives exactly as
// long as the gateway keeps the hosted page alive.
type Hosted struct {
	APISecret    string
	BaseURL      string
	PollInterval time.Duration
	http         *resty.Client
}

// NewHosted constructs a Hosted invoker for the given gateway endpoint.
func NewHosted(baseURL, apiSecret string, pollInterval time.Duration) *Hosted {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(apiSecret) != "" {
		client.SetHeader("Authorization", "PortOne "+apiSecret)
	}
	return &Hosted{
		APISecret:    apiSecret,
		BaseURL:      baseURL,
		PollInterval: pollInterval,
		http:         client,
	}
}

type checkoutSession struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Payment   struct {
		ID        string `json:"id"`
		PaymentID string `json:"paymentId"`
		TxID      string `json:"txId"`
	} `json:"payment"`
	Failure struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"failure"`
}

// Invoke implements Invoker. It suspends until the hosted page resolves; the
// only way out besides a terminal session status is context cancellation by
// the caller's transport.
func (h *Hosted) Invoke(ctx context.Context, req Request) (Outcome, error) {
	if strings.TrimSpace(req.PaymentID) == "" {
		return Outcome{}, errors.New("gateway: payment id is required")
	}
	if strings.TrimSpace(req.ChannelKey) == "" {
		return Outcome{}, errors.New("gateway: channel key is required")
	}

	var created checkoutSession
	resp, err := h.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&created).
		Post("/checkout/sessions")
	if err != nil {
		return Outcome{}, fmt.Errorf("gateway: open checkout: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return Outcome{}, fmt.Errorf("gateway: open checkout: %s", resp.Status())
	}
	if strings.TrimSpace(created.SessionID) == "" {
		return Outcome{}, errors.New("gateway: checkout session id missing")
	}

	ticker := time.NewTicker(h.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-ticker.C:
		}

		var session checkoutSession
		resp, err := h.http.R().
			SetContext(ctx).
			SetResult(&session).
			Get("/checkout/sessions/" + created.SessionID)
		if err != nil {
			return Outcome{}, fmt.Errorf("gateway: poll checkout: %w", err)
		}
		if resp.StatusCode() >= http.StatusBadRequest {
			return Outcome{}, fmt.Errorf("gateway: poll checkout: %s", resp.Status())
		}

		switch strings.ToUpper(strings.TrimSpace(session.Status)) {
		case "COMPLETED":
			return Outcome{
				ID:        session.Payment.ID,
				PaymentID: session.Payment.PaymentID,
				TxID:      session.Payment.TxID,
			}, nil
		case "FAILED", "CANCELLED", "ABANDONED":
			code := session.Failure.Code
			if strings.TrimSpace(code) == "" {
				code = "FAILURE"
			}
			return Outcome{Code: code, Message: session.Failure.Message}, nil
		}
	}
}
