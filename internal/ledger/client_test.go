package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/payflow-kr/backend-payflow/internal/common"
	"github.com/payflow-kr/backend-payflow/internal/ledger"
	"github.com/payflow-kr/backend-payflow/internal/session"
)

func envelope(data any) []byte {
	body, _ := json.Marshal(map[string]any{
		"code":    0,
		"status":  "OK",
		"message": "success",
		"data":    data,
	})
	return body
}

func newClient(t *testing.T, handler http.Handler) (*ledger.Client, *session.MemoryStore, context.Context) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions := session.NewMemoryStore()
	client := ledger.New(srv.URL, sessions, zerolog.Nop())
	ctx := common.WithSessionID(context.Background(), "sess-1")
	return client, sessions, ctx
}

func TestCreateIntentUnwrapsEnvelopeAndSendsBearer(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client, sessions, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments/request", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write(envelope(map[string]any{
			"id":          7,
			"merchantUid": "ref-1",
			"name":        "Widget",
			"amount":      10000,
			"status":      "READY",
			"buyerName":   "Kim",
			"buyerEmail":  "kim@x.com",
			"buyerTel":    "010-1234-5678",
		}))
	}))
	require.NoError(t, sessions.Init(ctx, "sess-1", "token-abc"))

	rec, err := client.CreateIntent(ctx, ledger.CreateIntentParams{
		MerchantUID: "ref-1",
		Amount:      10000,
		Name:        "Widget",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer token-abc", gotAuth)
	require.Equal(t, "Kim", rec.BuyerName)
	require.Equal(t, "kim@x.com", rec.BuyerEmail)
	require.Equal(t, "010-1234-5678", rec.BuyerTel)
	// Buyer identity is never client-supplied.
	require.NotContains(t, gotBody, "buyerName")
}

func TestUnauthorizedClearsCredentialAndPropagates(t *testing.T) {
	client, sessions, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	require.NoError(t, sessions.Init(ctx, "sess-1", "stale-token"))

	_, err := client.List(ctx, 1, 20)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	token, err := sessions.Token(ctx, "sess-1")
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestTokenReadFreshOnEveryCall(t *testing.T) {
	var seen []string
	client, sessions, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = w.Write(envelope([]any{}))
	}))

	_, err := client.List(ctx, 1, 20)
	require.NoError(t, err)

	require.NoError(t, sessions.Init(ctx, "sess-1", "rotated"))
	_, err = client.List(ctx, 1, 20)
	require.NoError(t, err)

	require.Equal(t, []string{"", "Bearer rotated"}, seen)
}

func TestErrorMessageComesFromEnvelope(t *testing.T) {
	client, _, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":-1,"status":"CONFLICT","message":"already cancelled","data":null}`))
	}))

	_, err := client.Cancel(ctx, "imp_1", "dup")
	require.Error(t, err)
	require.Equal(t, "already cancelled", ledger.UserMessage(err))
}

func TestErrorMessageFallsBackToTransportMessage(t *testing.T) {
	client, _, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Confirm(ctx, "imp_1", "ref-1")
	require.Error(t, err)
	require.Equal(t, common.GenericTransportMessage, ledger.UserMessage(err))
}

func TestCancelSendsReasonAsQueryParam(t *testing.T) {
	var gotReason string
	var gotPath string
	client, _, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotReason = r.URL.Query().Get("reason")
		_, _ = w.Write(envelope(map[string]any{"paymentId": "imp_55", "status": "CANCELLED"}))
	}))

	result, err := client.Cancel(ctx, "imp_55", "customer request")
	require.NoError(t, err)
	require.Equal(t, "/payments/cancel/imp_55", gotPath)
	require.Equal(t, "customer request", gotReason)
	require.Equal(t, "CANCELLED", result.Status)
}

func TestGatewayConfigRequiresChannelKey(t *testing.T) {
	client, _, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(map[string]any{"storeId": "store-1", "channelKey": ""}))
	}))

	_, err := client.GatewayConfig(ctx)
	require.ErrorIs(t, err, ledger.ErrConfigUnavailable)
}

func TestGatewayConfigSuccess(t *testing.T) {
	client, _, ctx := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/config", r.URL.Path)
		_, _ = w.Write(envelope(map[string]any{"storeId": "store-1", "channelKey": "channel-1"}))
	}))

	cfg, err := client.GatewayConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, "store-1", cfg.StoreID)
	require.Equal(t, "channel-1", cfg.ChannelKey)
}
