package session

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/payflow-kr/backend-payflow/internal/common"
)

// Handler binds and unbinds a bearer credential to the caller's session.
// The service never mints credentials itself; it stores whatever the backend
// issued at login so later ledger calls can attach it.
type Handler struct {
	Store Store
}

type bindReq struct {
	Token string `json:"token"`
}

// Bind stores the credential for the caller's session, replacing any
// previous one.
func (h Handler) Bind(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "session required", nil)
		return
	}
	var req bindReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "token is required", nil)
		return
	}
	if err := h.Store.Init(r.Context(), sid, req.Token); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "SESSION_STORE", "could not store credential", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unbind drops the stored credential. Unbinding an absent credential is not
// an error.
func (h Handler) Unbind(w http.ResponseWriter, r *http.Request) {
	sid, ok := common.SessionID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "session required", nil)
		return
	}
	if err := h.Store.Clear(r.Context(), sid); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "SESSION_STORE", "could not clear credential", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
