package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayStub(t *testing.T, statuses []string, failure map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": "cs_1", "status": "PENDING"})
	})
	mux.HandleFunc("GET /checkout/sessions/cs_1", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		idx := int(n) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		body := map[string]any{
			"sessionId": "cs_1",
			"status":    statuses[idx],
			"payment": map[string]string{
				"id":        "imp_9",
				"paymentId": "ref-1",
			},
		}
		if failure != nil {
			body["failure"] = failure
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestInvokePollsUntilCompleted(t *testing.T) {
	srv, polls := newGatewayStub(t, []string{"PENDING", "PENDING", "COMPLETED"}, nil)
	h := NewHosted(srv.URL, "secret", 5*time.Millisecond)

	outcome, err := h.Invoke(context.Background(), Request{PaymentID: "ref-1", ChannelKey: "ch"})
	require.NoError(t, err)
	assert.False(t, outcome.Failed())
	assert.Equal(t, "imp_9", outcome.ID)
	assert.Equal(t, "ref-1", outcome.PaymentID)
	assert.GreaterOrEqual(t, atomic.LoadInt32(polls), int32(3))
}

func TestInvokeReturnsFailureShape(t *testing.T) {
	srv, _ := newGatewayStub(t, []string{"FAILED"}, map[string]string{
		"code":    "PAY_PROCESS_CANCELED",
		"message": "buyer closed the window",
	})
	h := NewHosted(srv.URL, "secret", 5*time.Millisecond)

	outcome, err := h.Invoke(context.Background(), Request{PaymentID: "ref-1", ChannelKey: "ch"})
	require.NoError(t, err)
	assert.True(t, outcome.Failed())
	assert.Equal(t, "PAY_PROCESS_CANCELED", outcome.Code)
	assert.Equal(t, "buyer closed the window", outcome.Message)
}

func TestInvokeDefaultsFailureCode(t *testing.T) {
	srv, _ := newGatewayStub(t, []string{"ABANDONED"}, map[string]string{"message": "abandoned"})
	h := NewHosted(srv.URL, "secret", 5*time.Millisecond)

	outcome, err := h.Invoke(context.Background(), Request{PaymentID: "ref-1", ChannelKey: "ch"})
	require.NoError(t, err)
	assert.Equal(t, "FAILURE", outcome.Code)
}

func TestInvokeStopsOnContextCancel(t *testing.T) {
	srv, _ := newGatewayStub(t, []string{"PENDING"}, nil)
	h := NewHosted(srv.URL, "secret", 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := h.Invoke(ctx, Request{PaymentID: "ref-1", ChannelKey: "ch"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvokeValidatesRequest(t *testing.T) {
	h := NewHosted("http://localhost:0", "", time.Millisecond)

	_, err := h.Invoke(context.Background(), Request{ChannelKey: "ch"})
	require.Error(t, err)

	_, err = h.Invoke(context.Background(), Request{PaymentID: "ref-1"})
	require.Error(t, err)
}
