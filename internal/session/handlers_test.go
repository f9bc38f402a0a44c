package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payflow-kr/backend-payflow/internal/session"
)

func TestBindStoresCredential(t *testing.T) {
	store := session.NewMemoryStore()
	h := session.Handler{Store: store}
	mw := session.Middleware{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"token":"tok-1"}`))
	req.Header.Set(session.HeaderName, "sess-1")

	mw.Require(http.HandlerFunc(h.Bind)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	token, err := store.Token(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestBindRequiresToken(t *testing.T) {
	h := session.Handler{Store: session.NewMemoryStore()}
	mw := session.Middleware{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"token":"  "}`))
	req.Header.Set(session.HeaderName, "sess-1")

	mw.Require(http.HandlerFunc(h.Bind)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBindRequiresSession(t *testing.T) {
	h := session.Handler{Store: session.NewMemoryStore()}
	mw := session.Middleware{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"token":"tok-1"}`))

	mw.Require(http.HandlerFunc(h.Bind)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnbindClearsCredential(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Init(context.Background(), "sess-1", "tok-1"))
	h := session.Handler{Store: store}
	mw := session.Middleware{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/session", nil)
	req.Header.Set(session.HeaderName, "sess-1")

	mw.Require(http.HandlerFunc(h.Unbind)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	token, err := store.Token(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, token)
}
