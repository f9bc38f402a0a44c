// Package ledger is the client for the backend payment ledger. The ledger is
// the system of record: it owns payment rows, buyer identity and settlement;
// this service only orchestrates against it.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/payflow-kr/backend-payflow/internal/common"
	"github.com/payflow-kr/backend-payflow/internal/gateway"
	"github.com/payflow-kr/backend-payflow/internal/obs"
	"github.com/payflow-kr/backend-payflow/internal/session"
)

// ErrUnauthorized indicates the backend rejected the bearer credential. It is
// propagated, never handled here, beyond clearing the cached credential so the
// next login starts clean.
var ErrUnauthorized = errors.New("ledger: unauthorized")

// ErrConfigUnavailable indicates the gateway config could not be fetched or
// was missing required fields.
var ErrConfigUnavailable = errors.New("ledger: gateway config unavailable")

// APIError carries the backend's error message for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ledger: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ledger: %d", e.StatusCode)
}

// UserMessage extracts the message to surface for a failed ledger call:
// the backend envelope message when present, the generic transport message
// otherwise. Raw transport errors never reach users.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return common.GenericTransportMessage
}

// Client talks to the backend ledger REST API. The bearer credential is read
// from the session store on every call, so logins, logouts and rotations
// elsewhere are picked up immediately.
type Client struct {
	http     *resty.Client
	sessions session.Store
	log      zerolog.Logger
}

// New constructs a Client for the given base URL.
func New(baseURL string, sessions session.Store, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	return &Client{http: httpClient, sessions: sessions, log: log}
}

// GatewayConfig fetches the store/channel credentials needed to open checkout.
func (c *Client) GatewayConfig(ctx context.Context) (gateway.Config, error) {
	var cfg gateway.Config
	if err := c.do(ctx, "config", http.MethodGet, "/payments/config", nil, nil, &cfg); err != nil {
		return gateway.Config{}, fmt.Errorf("%w: %w", ErrConfigUnavailable, err)
	}
	if strings.TrimSpace(cfg.StoreID) == "" || strings.TrimSpace(cfg.ChannelKey) == "" {
		return gateway.Config{}, ErrConfigUnavailable
	}
	return cfg, nil
}

// CreateIntent registers a pending payment. The returned record carries the
// backend-resolved buyer identity, which overrides anything known locally.
func (c *Client) CreateIntent(ctx context.Context, p CreateIntentParams) (PaymentRecord, error) {
	var rec PaymentRecord
	err := c.do(ctx, "create_intent", http.MethodPost, "/payments/request", p, nil, &rec)
	return rec, err
}

// Confirm reports a successful checkout for final settlement. Both
// identifiers are sent so the backend can cross-validate them.
func (c *Client) Confirm(ctx context.Context, impUID, merchantUID string) (PaymentRecord, error) {
	body := map[string]string{"impUid": impUID, "merchantUid": merchantUID}
	var rec PaymentRecord
	err := c.do(ctx, "confirm", http.MethodPost, "/payments/confirm", body, nil, &rec)
	return rec, err
}

// List returns one page of the caller's payments.
func (c *Client) List(ctx context.Context, page, size int) ([]PaymentRecord, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		query.Set("size", strconv.Itoa(size))
	}
	var records []PaymentRecord
	err := c.do(ctx, "list", http.MethodGet, "/payments", nil, query, &records)
	return records, err
}

// Get fetches a payment by its internal ledger id.
func (c *Client) Get(ctx context.Context, id int64) (PaymentRecord, error) {
	var rec PaymentRecord
	err := c.do(ctx, "get", http.MethodGet, "/payments/"+strconv.FormatInt(id, 10), nil, nil, &rec)
	return rec, err
}

// GetByGatewayID fetches a payment by its gateway-assigned identifier.
func (c *Client) GetByGatewayID(ctx context.Context, impUID string) (PaymentRecord, error) {
	var rec PaymentRecord
	err := c.do(ctx, "get_by_imp", http.MethodGet, "/payments/imp/"+url.PathEscape(impUID), nil, nil, &rec)
	return rec, err
}

// GetByOrderID fetches the payments linked to an external order.
func (c *Client) GetByOrderID(ctx context.Context, orderID int64) ([]PaymentRecord, error) {
	var records []PaymentRecord
	err := c.do(ctx, "get_by_order", http.MethodGet, "/payments/order/"+strconv.FormatInt(orderID, 10), nil, nil, &records)
	return records, err
}

// Cancel reverses a settled payment.
func (c *Client) Cancel(ctx context.Context, impUID, reason string) (CancelResult, error) {
	query := url.Values{}
	query.Set("reason", reason)
	var result CancelResult
	err := c.do(ctx, "cancel", http.MethodPost, "/payments/cancel/"+url.PathEscape(impUID), nil, query, &result)
	return result, err
}

// Ping probes the ledger's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/payments/ping", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, query url.Values, out any) error {
	start := time.Now()
	result := "error"
	defer func() {
		if obs.LedgerRequestLatency != nil {
			obs.LedgerRequestLatency.WithLabelValues(op, result).Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if token := c.bearer(ctx); token != "" {
		req.SetAuthToken(token)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("ledger: %s %s: %w", method, path, err)
	}

	var envelope Envelope
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &envelope); err != nil && resp.StatusCode() < http.StatusBadRequest {
			return fmt.Errorf("ledger: decode envelope: %w", err)
		}
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		c.clearCredential(ctx)
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(envelope.Message)}
	}

	result = "success"
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("ledger: decode %s response: %w", op, err)
	}
	return nil
}

// bearer reads the credential fresh for this call. A missing session or token
// yields an unauthenticated request; the backend's rejection is the signal.
func (c *Client) bearer(ctx context.Context) string {
	if c.sessions == nil {
		return ""
	}
	sid, ok := common.SessionID(ctx)
	if !ok {
		return ""
	}
	token, err := c.sessions.Token(ctx, sid)
	if err != nil {
		c.log.Warn().Err(err).Msg("read session credential")
		return ""
	}
	return token
}

// clearCredential drops the cached bearer after a 401 so a stale token is not
// replayed. Redirecting the user to authentication is the client's job.
func (c *Client) clearCredential(ctx context.Context) {
	if c.sessions == nil {
		return
	}
	sid, ok := common.SessionID(ctx)
	if !ok {
		return
	}
	if err := c.sessions.Clear(ctx, sid); err != nil {
		c.log.Warn().Err(err).Msg("clear session credential")
	}
}
