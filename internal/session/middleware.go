package session

import (
	"net/http"
	"strings"

	"github.com/payflow-kr/backend-payflow/internal/common"
)

// HeaderName identifies the caller's session on incoming requests.
const HeaderName = "X-Session-ID"

// Middleware attaches the session identifier to the request context.
type Middleware struct{}

// Attach stores the session identifier on the context when present. Requests
// without one proceed; downstream ledger calls will simply be unauthenticated
// and rejected by the backend.
func (Middleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sid := strings.TrimSpace(r.Header.Get(HeaderName)); sid != "" {
			r = r.WithContext(common.WithSessionID(r.Context(), sid))
		}
		next.ServeHTTP(w, r)
	})
}

// Require enforces that a session identifier is present before executing the
// next handler.
func (Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(HeaderName))
		if sid == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "session required", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithSessionID(r.Context(), sid)))
	})
}
