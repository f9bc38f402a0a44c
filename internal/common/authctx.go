package common

import "context"

type ctxKey string

const sessionIDKey ctxKey = "auth/session-id"

// WithSessionID stores the caller's session identifier on the provided context.
// The session identifier keys the bearer credential held in the session store;
// the credential itself never travels on the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID extracts the session identifier from the context if present.
func SessionID(ctx context.Context) (string, bool) {
	v := ctx.Value(sessionIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
