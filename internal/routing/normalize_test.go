package routing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pay/internal/gateway"
	"github.com/noah-isme/backend-pay/internal/geo"
	"github.com/noah-isme/backend-pay/internal/routing"
)

func TestUnifiedStatusMappingsAreExhaustive(t *testing.T) {
	t.Parallel()

	for _, id := range []gateway.ID{gateway.Stripe, gateway.Razorpay, gateway.Wise, gateway.Flutterwave} {
		natives := routing.NativeStatuses(id)
		require.NotEmpty(t, natives, "gateway %s", id)
		for native, want := range natives {
			require.Equal(t, want, routing.UnifiedStatus(id, native), "%s/%s", id, native)
		}
	}
}

func TestUnifiedStatusTerminalStates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id     gateway.ID
		native string
		want   routing.Status
	}{
		{gateway.Stripe, "succeeded", routing.StatusCompleted},
		{gateway.Stripe, "canceled", routing.StatusCancelled},
		{gateway.Stripe, "in_transit", routing.StatusProcessing},
		{gateway.Razorpay, "captured", routing.StatusCompleted},
		{gateway.Razorpay, "refunded", routing.StatusCancelled},
		{gateway.Wise, "outgoing_payment_sent", routing.StatusCompleted},
		{gateway.Wise, "funds_refunded", routing.StatusFailed},
		{gateway.Flutterwave, "successful", routing.StatusCompleted},
		{gateway.Flutterwave, "pending", routing.StatusProcessing},
		{gateway.Flutterwave, "new", routing.StatusPending},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, routing.UnifiedStatus(tc.id, tc.native), "%s/%s", tc.id, tc.native)
	}
}

func TestUnifiedStatusUnknownDefaultsToPending(t *testing.T) {
	t.Parallel()

	require.Equal(t, routing.StatusPending, routing.UnifiedStatus(gateway.Stripe, "some_new_state"))
	require.Equal(t, routing.StatusPending, routing.UnifiedStatus(gateway.ID("acme"), "succeeded"))
	require.Equal(t, routing.StatusPending, routing.UnifiedStatus(gateway.Wise, ""))
}

func TestUnitConversionRoundTrips(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(4250), routing.MinorUnits(decimal.RequireFromString("42.50"), "USD"))
	require.Equal(t, int64(500), routing.MinorUnits(decimal.NewFromInt(500), "JPY"))
	require.Equal(t, int64(12345), routing.MinorUnits(decimal.RequireFromString("12.345"), "BHD"))

	require.True(t, decimal.RequireFromString("42.50").Equal(routing.MajorUnits(4250, "usd")))
	require.True(t, decimal.NewFromInt(500).Equal(routing.MajorUnits(500, "JPY")))
	require.True(t, decimal.RequireFromString("0.03").Equal(routing.MajorUnits(3, "USD")))
}

func TestNormalizePaymentMergesMetadataGatewayWins(t *testing.T) {
	t.Parallel()

	intent := gateway.PaymentIntent{
		TransactionID: "pay_tx1",
		PayerID:       "payer-1",
		AmountMinor:   4250,
		Currency:      "USD",
		Metadata:      map[string]string{"order": "A-1", "source": "request"},
	}
	res := gateway.PaymentResult{
		Success:      true,
		ProviderRef:  "pi_abc",
		NativeStatus: "succeeded",
		Currency:     "usd",
		Metadata:     map[string]string{"source": "gateway", "client_secret": "cs_1"},
	}
	loc := geo.Location{Region: geo.RegionUS, Country: "US"}

	out := routing.NormalizePayment(gateway.Stripe, intent, res, loc)
	require.True(t, out.Success)
	require.Equal(t, routing.OpPayment, out.Operation)
	require.Equal(t, "pay_tx1", out.TransactionID)
	require.Equal(t, "pi_abc", out.GatewayTransactionID)
	require.Equal(t, gateway.Stripe, out.Gateway)
	require.Equal(t, routing.StatusCompleted, out.Status)
	require.True(t, decimal.RequireFromString("42.50").Equal(out.Amount))
	require.Equal(t, "USD", out.Currency)
	require.Equal(t, loc, out.Location)
	require.Equal(t, "gateway", out.Metadata["source"])
	require.Equal(t, "A-1", out.Metadata["order"])
	require.Equal(t, "cs_1", out.Metadata["client_secret"])
}

func TestNormalizePayoutFailureSynthesizesErrorCode(t *testing.T) {
	t.Parallel()

	order := gateway.PayoutOrder{
		TransactionID: "po_tx1",
		RecipientID:   "rec-1",
		AmountMinor:   10000,
		Currency:      "EUR",
		PayoutEmail:   "alice@example.com",
	}
	res := gateway.PayoutResult{
		Success:      false,
		NativeStatus: "funds_refunded",
		ErrorMessage: "balance insufficient",
	}

	out := routing.NormalizePayout(gateway.Wise, order, res, geo.Location{Region: geo.RegionEU})
	require.False(t, out.Success)
	require.Equal(t, routing.StatusFailed, out.Status)
	require.True(t, decimal.NewFromInt(100).Equal(out.Amount))
	require.Equal(t, "WISE_ERROR", out.ErrorCode)
	require.Equal(t, "balance insufficient", out.Error)
}
