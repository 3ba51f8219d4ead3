package gateway_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pay/internal/gateway"
)

func mustTable(t *testing.T) gateway.Table {
	t.Helper()
	table, err := gateway.NewTable(gateway.DefaultCapabilities())
	require.NoError(t, err)
	return table
}

func TestRegistrySkipsGatewaysWithoutCredentials(t *testing.T) {
	t.Parallel()

	reg := gateway.NewRegistry(gateway.Credentials{
		StripeSecretKey: "sk_test_123",
	}, mustTable(t), zerolog.Nop())

	_, ok := reg.Adapter(gateway.Stripe)
	require.True(t, ok)

	for _, id := range []gateway.ID{gateway.Razorpay, gateway.Wise, gateway.Flutterwave} {
		_, ok := reg.Adapter(id)
		require.False(t, ok, "adapter %s should not be constructed", id)
	}
}

func TestRegistryRequiresBothRazorpayKeys(t *testing.T) {
	t.Parallel()

	reg := gateway.NewRegistry(gateway.Credentials{RazorpayKeyID: "rzp_test"}, mustTable(t), zerolog.Nop())
	_, ok := reg.Adapter(gateway.Razorpay)
	require.False(t, ok)

	reg = gateway.NewRegistry(gateway.Credentials{RazorpayKeyID: "rzp_test", RazorpayKeySecret: "secret"}, mustTable(t), zerolog.Nop())
	_, ok = reg.Adapter(gateway.Razorpay)
	require.True(t, ok)
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	t.Parallel()

	caps := gateway.DefaultCapabilities()
	caps = append(caps, caps[0])
	_, err := gateway.NewTable(caps)
	require.Error(t, err)
}

func TestAdaptersProduceDeterministicReferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	adapter := gateway.StripeAdapter{SecretKey: "sk_test_123"}
	intent := gateway.PaymentIntent{
		TransactionID:  "pay_0001",
		IdempotencyKey: "idem-1",
		AmountMinor:    5_000,
		Currency:       "usd",
	}

	first, err := adapter.CreatePayment(ctx, intent)
	require.NoError(t, err)
	second, err := adapter.CreatePayment(ctx, intent)
	require.NoError(t, err)

	require.True(t, first.Success)
	require.Equal(t, "succeeded", first.NativeStatus)
	require.Equal(t, "USD", first.Currency)
	require.Equal(t, first.ProviderRef, second.ProviderRef, "same idempotency key must yield the same reference")
}

func TestUnsupportedOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := gateway.WiseAdapter{APIToken: "tok"}.CreatePayment(ctx, gateway.PaymentIntent{TransactionID: "x"})
	require.ErrorIs(t, err, gateway.ErrUnsupportedOperation)

	res, err := gateway.RazorpayAdapter{KeyID: "k", KeySecret: "s"}.CreatePayout(ctx, gateway.PayoutOrder{TransactionID: "y"})
	require.ErrorIs(t, err, gateway.ErrUnsupportedOperation)
	require.False(t, res.Success)
	require.Equal(t, "PAYOUTS_NOT_ENABLED", res.ErrorCode)
}

func TestCapabilityBounds(t *testing.T) {
	t.Parallel()

	cap := gateway.Capability{MinAmount: 100, MaxAmount: 1_000}
	require.False(t, cap.WithinBounds(99))
	require.True(t, cap.WithinBounds(100))
	require.True(t, cap.WithinBounds(1_000))
	require.False(t, cap.WithinBounds(1_001))

	unbounded := gateway.Capability{}
	require.True(t, unbounded.WithinBounds(1))
	require.True(t, unbounded.WithinBounds(1<<40))
}
