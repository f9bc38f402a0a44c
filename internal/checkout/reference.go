package checkout

import "github.com/google/uuid"

// NewReference produces a fresh merchant transaction reference: a canonical
// v4 UUID from a cryptographic random source. The 122 random bits make a
// collision within one merchant negligible, which matters because a reused
// reference would corrupt ledger bookkeeping. Callable repeatedly; the caller
// decides which generated value is actually submitted.
func NewReference() string {
	return uuid.NewString()
}
