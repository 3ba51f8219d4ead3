package routing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pay/internal/routing"
)

func TestNewTransactionIDPrefixes(t *testing.T) {
	t.Parallel()

	payment := routing.NewTransactionID(routing.OpPayment)
	require.True(t, strings.HasPrefix(payment, "pay_"), payment)
	require.Len(t, payment, len("pay_")+32)
	require.NotContains(t, payment, "-")

	payout := routing.NewTransactionID(routing.OpPayout)
	require.True(t, strings.HasPrefix(payout, "po_"), payout)
	require.Len(t, payout, len("po_")+32)
}

func TestNewTransactionIDUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := routing.NewTransactionID(routing.OpPayment)
		_, dup := seen[id]
		require.False(t, dup, id)
		seen[id] = struct{}{}
	}
}

func TestNewTransactionIDTimeOrdered(t *testing.T) {
	t.Parallel()

	// UUIDv7 ids share a millisecond timestamp prefix, so a batch produced
	// now must compare at or after a batch produced earlier.
	first := routing.NewTransactionID(routing.OpPayment)
	var last string
	for i := 0; i < 100; i++ {
		last = routing.NewTransactionID(routing.OpPayment)
	}
	require.LessOrEqual(t, first, last)
}
