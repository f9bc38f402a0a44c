package checkout

import (
	"strings"

	"github.com/payflow-kr/backend-payflow/internal/gateway"
)

// ResolveTransactionID derives the authoritative transaction identifier from
// a successful checkout outcome. Hosted providers normalise, omit or echo
// identifiers inconsistently across payment methods, so the precedence is
// policy, not a derived guarantee:
//
//  1. the gateway-assigned transaction id,
//  2. the echoed requested-payment id,
//  3. the locally generated reference, which is always known to be valid.
//
// Whitespace-only remote fields count as absent. When all three are absent
// resolution fails with ErrIdentifierMissing; substituting a synthetic value
// here would risk confirming against the wrong transaction.
func ResolveTransactionID(outcome gateway.Outcome, reference string) (string, error) {
	if id := strings.TrimSpace(outcome.ID); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(outcome.PaymentID); id != "" {
		return id, nil
	}
	if ref := strings.TrimSpace(reference); ref != "" {
		return ref, nil
	}
	return "", ErrIdentifierMissing
}
