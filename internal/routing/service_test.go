package routing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pay/internal/common"
	"github.com/noah-isme/backend-pay/internal/events"
	"github.com/noah-isme/backend-pay/internal/fx"
	"github.com/noah-isme/backend-pay/internal/gateway"
	"github.com/noah-isme/backend-pay/internal/geo"
	"github.com/noah-isme/backend-pay/internal/resilience"
	"github.com/noah-isme/backend-pay/internal/routing"
)

// stubAdapter is a scriptable gateway for pipeline tests. It records the
// last request it received, can block until the dispatch deadline, and
// returns its scripted result alongside err so error-with-result adapter
// behavior can be exercised.
type stubAdapter struct {
	mu         sync.Mutex
	id         gateway.ID
	payment    gateway.PaymentResult
	payout     gateway.PayoutResult
	err        error
	hang       bool
	currencies map[string]bool

	lastIntent *gateway.PaymentIntent
	lastOrder  *gateway.PayoutOrder
}

func (s *stubAdapter) ID() gateway.ID { return s.id }

func (s *stubAdapter) CreatePayment(ctx context.Context, intent gateway.PaymentIntent) (gateway.PaymentResult, error) {
	s.mu.Lock()
	s.lastIntent = &intent
	s.mu.Unlock()
	if s.hang {
		<-ctx.Done()
		return gateway.PaymentResult{}, ctx.Err()
	}
	if s.err != nil {
		return s.payment, s.err
	}
	return s.payment, nil
}

func (s *stubAdapter) CreatePayout(ctx context.Context, order gateway.PayoutOrder) (gateway.PayoutResult, error) {
	s.mu.Lock()
	s.lastOrder = &order
	s.mu.Unlock()
	if s.hang {
		<-ctx.Done()
		return gateway.PayoutResult{}, ctx.Err()
	}
	if s.err != nil {
		return s.payout, s.err
	}
	return s.payout, nil
}

func (s *stubAdapter) IsCurrencySupported(currency string) bool {
	if s.currencies == nil {
		return true
	}
	return s.currencies[currency]
}

func (s *stubAdapter) AmountLimits(string) gateway.AmountLimits { return gateway.AmountLimits{} }

func (s *stubAdapter) intent() *gateway.PaymentIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIntent
}

func (s *stubAdapter) order() *gateway.PayoutOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOrder
}

// recordingNotifier captures every event the bus fans out.
type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev events.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Topic)
	}
	return out
}

type routerFixture struct {
	router   *routing.Router
	registry *gateway.Registry
	notifier *recordingNotifier
	breakers map[gateway.ID]*resilience.Breaker
}

func newFixture(t *testing.T, adapters ...gateway.Adapter) routerFixture {
	return newFixtureWithCaps(t, gateway.DefaultCapabilities(), adapters...)
}

func newFixtureWithCaps(t *testing.T, caps []gateway.Capability, adapters ...gateway.Adapter) routerFixture {
	t.Helper()
	table, err := gateway.NewTable(caps)
	require.NoError(t, err)

	reg := gateway.NewRegistry(gateway.Credentials{}, table, zerolog.Nop())
	for _, adapter := range adapters {
		reg.Register(adapter)
	}

	notifier := &recordingNotifier{}
	bus := &events.Bus{Notifiers: []events.Notifier{notifier}}
	breakers := map[gateway.ID]*resilience.Breaker{}

	router := routing.NewRouter(reg, geo.Static{}, fx.Static{}, bus, breakers, 100*time.Millisecond, zerolog.Nop())
	return routerFixture{router: router, registry: reg, notifier: notifier, breakers: breakers}
}

func TestProcessPaymentRoutesINRToRazorpay(t *testing.T) {
	t.Parallel()

	razorpay := &stubAdapter{
		id: gateway.Razorpay,
		payment: gateway.PaymentResult{
			Success:      true,
			ProviderRef:  "pay_rzp1",
			NativeStatus: "captured",
			Currency:     "INR",
		},
	}
	stripe := &stubAdapter{id: gateway.Stripe, payment: gateway.PaymentResult{Success: true, NativeStatus: "succeeded"}}
	env := newFixture(t, razorpay, stripe)

	result := env.router.ProcessPayment(context.Background(), routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(500),
		Currency: "INR",
		Country:  "IN",
	})

	require.True(t, result.Success)
	require.Equal(t, gateway.Razorpay, result.Gateway)
	require.Equal(t, routing.StatusCompleted, result.Status)
	require.Equal(t, geo.RegionIN, result.Region)
	require.False(t, result.FellBack)
	require.Equal(t, "pay_rzp1", result.GatewayTransactionID)
	require.Contains(t, env.notifier.topics(), events.TopicPaymentCompleted)

	intent := razorpay.intent()
	require.NotNil(t, intent)
	require.Equal(t, int64(50_000), intent.AmountMinor)
	require.Equal(t, "INR", intent.Currency)
	require.Equal(t, result.TransactionID, intent.TransactionID)
	require.Nil(t, stripe.intent())
}

func TestProcessPayoutRoutesAfricaUSDToFlutterwave(t *testing.T) {
	t.Parallel()

	flutterwave := &stubAdapter{
		id: gateway.Flutterwave,
		payout: gateway.PayoutResult{
			Success:      true,
			ProviderRef:  "transfer_1",
			NativeStatus: "new",
			Currency:     "USD",
		},
	}
	wise := &stubAdapter{id: gateway.Wise}
	env := newFixture(t, flutterwave, wise)

	result := env.router.ProcessPayout(context.Background(), routing.PayoutRequest{
		RecipientID: "rec-1",
		Amount:      decimal.NewFromInt(200),
		Currency:    "USD",
		Country:     "NG",
		BankAccount: &gateway.BankAccount{HolderName: "Ada", AccountNumber: "0123456789"},
	})

	require.True(t, result.Success)
	require.Equal(t, gateway.Flutterwave, result.Gateway)
	require.Equal(t, routing.StatusPending, result.Status)
	require.Equal(t, geo.RegionAfrica, result.Region)
	require.False(t, result.FellBack)
	require.Nil(t, wise.order())
	require.Contains(t, env.notifier.topics(), events.TopicPayoutCompleted)
}

func TestProcessPayoutSkipsGatewayWithPayoutsDisabled(t *testing.T) {
	t.Parallel()

	// With stripe's payout capability turned off, a DEFAULT-region USD
	// payout must route to the next-priority payout gateway instead.
	caps := gateway.DefaultCapabilities()
	for i := range caps {
		if caps[i].Gateway == gateway.Stripe {
			caps[i].SupportsPayouts = false
		}
	}
	wise := &stubAdapter{
		id:     gateway.Wise,
		payout: gateway.PayoutResult{Success: true, NativeStatus: "processing", Currency: "USD"},
	}
	stripe := &stubAdapter{id: gateway.Stripe}
	env := newFixtureWithCaps(t, caps, wise, stripe)

	result := env.router.ProcessPayout(context.Background(), routing.PayoutRequest{
		RecipientID: "rec-1",
		Amount:      decimal.NewFromInt(10),
		Currency:    "USD",
		Country:     "US",
		PayoutEmail: "bob@example.com",
	})

	require.True(t, result.Success)
	require.Equal(t, gateway.Wise, result.Gateway)
	require.False(t, result.FellBack)
	require.Nil(t, stripe.order())
}

func TestProcessPayoutKeepsAdapterCodeForUnsupportedOperation(t *testing.T) {
	t.Parallel()

	// A capability row can claim payouts the provider account does not
	// actually have enabled. The adapter reports its own code alongside the
	// unsupported-operation error and that code must reach the caller.
	caps := gateway.DefaultCapabilities()
	for i := range caps {
		if caps[i].Gateway == gateway.Razorpay {
			caps[i].SupportsPayouts = true
		}
	}
	razorpay := &stubAdapter{
		id: gateway.Razorpay,
		payout: gateway.PayoutResult{
			Success:      false,
			NativeStatus: "failed",
			ErrorCode:    "PAYOUTS_NOT_ENABLED",
			ErrorMessage: "payouts are not enabled for this account",
		},
		err: gateway.ErrUnsupportedOperation,
	}
	env := newFixtureWithCaps(t, caps, razorpay)

	result := env.router.ProcessPayout(context.Background(), routing.PayoutRequest{
		RecipientID: "rec-1",
		Amount:      decimal.NewFromInt(500),
		Currency:    "INR",
		Country:     "IN",
		PayoutEmail: "bob@example.com",
	})

	require.False(t, result.Success)
	require.Equal(t, routing.StatusFailed, result.Status)
	require.Equal(t, "PAYOUTS_NOT_ENABLED", result.ErrorCode)
	require.Equal(t, "payouts are not enabled for this account", result.Error)
}

func TestProcessPaymentUnsupportedOperationDefaultsCode(t *testing.T) {
	t.Parallel()

	// Without an adapter-reported code the generic classification applies.
	stripe := &stubAdapter{id: gateway.Stripe, err: gateway.ErrUnsupportedOperation}
	env := newFixture(t, stripe)

	result := env.router.ProcessPayment(context.Background(), routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(20),
		Currency: "USD",
		Country:  "US",
	})

	require.False(t, result.Success)
	require.Equal(t, common.CodeGatewayUnavailable, result.ErrorCode)
}

func TestProcessPaymentRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	stripe := &stubAdapter{id: gateway.Stripe}
	env := newFixture(t, stripe)

	result := env.router.ProcessPayment(context.Background(), routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(-5),
		Currency: "USD",
		Country:  "US",
	})

	require.False(t, result.Success)
	require.Equal(t, routing.StatusFailed, result.Status)
	require.Equal(t, common.CodeAmountNotPositive, result.ErrorCode)
	require.Contains(t, result.Error, "positive")
	require.Empty(t, result.Gateway)
	require.NotEmpty(t, result.TransactionID)
	require.Nil(t, stripe.intent())
	require.Contains(t, env.notifier.topics(), events.TopicPaymentFailed)
}

func TestProcessPayoutRejectsMissingDestinationBeforeSelection(t *testing.T) {
	t.Parallel()

	wise := &stubAdapter{id: gateway.Wise}
	env := newFixture(t, wise)

	result := env.router.ProcessPayout(context.Background(), routing.PayoutRequest{
		RecipientID: "rec-1",
		Amount:      decimal.NewFromInt(50),
		Currency:    "EUR",
		Country:     "DE",
	})

	require.False(t, result.Success)
	require.Equal(t, common.CodeDestinationRequired, result.ErrorCode)
	require.Empty(t, result.Gateway)
	require.Nil(t, wise.order())
}

func TestProcessPaymentFallsBackWhenNoGatewayEligible(t *testing.T) {
	t.Parallel()

	// 0.30 USD is below every configured minimum, so the candidate set is
	// empty and routing falls back to the universal gateway.
	stripe := &stubAdapter{
		id:      gateway.Stripe,
		payment: gateway.PaymentResult{Success: true, ProviderRef: "pi_small", NativeStatus: "succeeded", Currency: "USD"},
	}
	env := newFixture(t, stripe)

	result := env.router.ProcessPayment(context.Background(), routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.RequireFromString("0.30"),
		Currency: "USD",
		Country:  "US",
	})

	require.True(t, result.FellBack)
	require.Equal(t, gateway.Fallback, result.Gateway)
	require.True(t, result.Success)
	require.Contains(t, env.notifier.topics(), events.TopicRoutingFallback)
	require.Contains(t, env.notifier.topics(), events.TopicPaymentCompleted)
	require.NotNil(t, stripe.intent())
}

func TestProcessPaymentFallbackConvertsCurrency(t *testing.T) {
	t.Parallel()

	// 0.50 GHS sits below flutterwave's minimum and no other gateway lists
	// GHS, so routing falls back; the fallback gateway does not take GHS
	// either, so the intent is converted before dispatch.
	stripe := &stubAdapter{
		id:         gateway.Stripe,
		currencies: map[string]bool{"USD": true},
		payment: gateway.PaymentResult{
			Success:      true,
			ProviderRef:  "pi_fx",
			NativeStatus: "succeeded",
			Currency:     "USD",
		},
	}
	env := newFixture(t, stripe)

	result := env.router.ProcessPayment(context.Background(), routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.RequireFromString("0.50"),
		Currency: "GHS",
		Country:  "GH",
	})

	require.True(t, result.FellBack)
	intent := stripe.intent()
	require.NotNil(t, intent)
	require.Equal(t, "USD", intent.Currency)
	require.Equal(t, "GHS", intent.Metadata["original_currency"])
	require.Equal(t, "0.50", intent.Metadata["original_amount"])
	require.NotEmpty(t, intent.Metadata["fx_rate"])

	// The unified result must report what was actually charged: the
	// converted amount in the converted currency, with the conversion
	// metadata attached.
	require.Equal(t, "USD", result.Currency)
	require.True(t, routing.MajorUnits(intent.AmountMinor, "USD").Equal(result.Amount),
		"result amount %s must match dispatched amount", result.Amount)
	require.Equal(t, "GHS", result.Metadata["original_currency"])
	require.Equal(t, "0.50", result.Metadata["original_amount"])
	require.Equal(t, intent.Metadata["fx_rate"], result.Metadata["fx_rate"])
}

func TestProcessPaymentGatewayNotConfigured(t *testing.T) {
	t.Parallel()

	// Razorpay is selected for INR in India but no adapter is registered.
	env := newFixture(t)

	result := env.router.ProcessPayment(context.Background(), routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(500),
		Currency: "INR",
		Country:  "IN",
	})

	require.False(t, result.Success)
	require.Equal(t, common.CodeGatewayNotConfigured, result.ErrorCode)
	require.Equal(t, gateway.Razorpay, result.Gateway)
}

func TestProcessPaymentOpenBreakerShortCircuits(t *testing.T) {
	t.Parallel()

	razorpay := &stubAdapter{id: gateway.Razorpay, err: context.DeadlineExceeded}
	env := newFixture(t, razorpay)
	breaker := resilience.NewBreaker(string(gateway.Razorpay), 1, 0.5, time.Minute, zerolog.Nop())
	env.breakers[gateway.Razorpay] = breaker

	req := routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(500),
		Currency: "INR",
		Country:  "IN",
	}

	// First dispatch fails and trips the breaker.
	first := env.router.ProcessPayment(context.Background(), req)
	require.False(t, first.Success)
	require.Equal(t, resilience.Open, breaker.CurrentState())

	// Second request is refused without touching the adapter.
	razorpay.mu.Lock()
	razorpay.lastIntent = nil
	razorpay.mu.Unlock()

	second := env.router.ProcessPayment(context.Background(), req)
	require.False(t, second.Success)
	require.Equal(t, common.CodeGatewayUnavailable, second.ErrorCode)
	require.Nil(t, razorpay.intent())
}

func TestProcessPaymentTimeoutMapsToGatewayTimeout(t *testing.T) {
	t.Parallel()

	razorpay := &stubAdapter{id: gateway.Razorpay, hang: true}
	env := newFixture(t, razorpay)
	env.router.DispatchTimeout = 20 * time.Millisecond

	result := env.router.ProcessPayment(context.Background(), routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(500),
		Currency: "INR",
		Country:  "IN",
	})

	require.False(t, result.Success)
	require.Equal(t, common.CodeGatewayTimeout, result.ErrorCode)
	require.Equal(t, gateway.Razorpay, result.Gateway)
}

func TestProcessPaymentThreadsIdempotencyKey(t *testing.T) {
	t.Parallel()

	razorpay := &stubAdapter{
		id:      gateway.Razorpay,
		payment: gateway.PaymentResult{Success: true, NativeStatus: "captured"},
	}
	env := newFixture(t, razorpay)

	ctx := common.WithIdempotencyKey(context.Background(), "idem-123")
	_ = env.router.ProcessPayment(ctx, routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(500),
		Currency: "INR",
		Country:  "IN",
	})

	intent := razorpay.intent()
	require.NotNil(t, intent)
	require.Equal(t, "idem-123", intent.IdempotencyKey)
}

func TestProcessPaymentDistinctTransactionIDs(t *testing.T) {
	t.Parallel()

	razorpay := &stubAdapter{
		id:      gateway.Razorpay,
		payment: gateway.PaymentResult{Success: true, NativeStatus: "captured"},
	}
	env := newFixture(t, razorpay)

	req := routing.PaymentRequest{
		PayerID:  "payer-1",
		Amount:   decimal.NewFromInt(500),
		Currency: "INR",
		Country:  "IN",
	}
	first := env.router.ProcessPayment(context.Background(), req)
	second := env.router.ProcessPayment(context.Background(), req)
	require.NotEqual(t, first.TransactionID, second.TransactionID)
}
