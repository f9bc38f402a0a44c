package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payflow-kr/backend-payflow/internal/gateway"
)

func TestResolveTransactionIDPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		outcome gateway.Outcome
		ref     string
		want    string
	}{
		{
			name:    "gateway id wins over everything",
			outcome: gateway.Outcome{ID: "g1", PaymentID: "r1", TxID: "t1"},
			ref:     "local",
			want:    "g1",
		},
		{
			name:    "echoed payment id when gateway id absent",
			outcome: gateway.Outcome{PaymentID: "r1", TxID: "t1"},
			ref:     "local",
			want:    "r1",
		},
		{
			name:    "local reference when both remote ids absent",
			outcome: gateway.Outcome{TxID: "t1"},
			ref:     "local",
			want:    "local",
		},
		{
			name:    "whitespace-only remote ids count as absent",
			outcome: gateway.Outcome{ID: "   ", PaymentID: "\t"},
			ref:     "local",
			want:    "local",
		},
		{
			name:    "empty remote ids fall through",
			outcome: gateway.Outcome{ID: "", PaymentID: ""},
			ref:     "local",
			want:    "local",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTransactionID(tt.outcome, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTransactionIDAllAbsent(t *testing.T) {
	_, err := ResolveTransactionID(gateway.Outcome{}, "")
	require.ErrorIs(t, err, ErrIdentifierMissing)

	_, err = ResolveTransactionID(gateway.Outcome{ID: " "}, "  ")
	require.ErrorIs(t, err, ErrIdentifierMissing)
}
