package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-pay/internal/common"
	"github.com/noah-isme/backend-pay/internal/events"
	"github.com/noah-isme/backend-pay/internal/fx"
	"github.com/noah-isme/backend-pay/internal/gateway"
	"github.com/noah-isme/backend-pay/internal/geo"
	"github.com/noah-isme/backend-pay/internal/ledger"
	"github.com/noah-isme/backend-pay/internal/obs"
	"github.com/noah-isme/backend-pay/internal/resilience"
)

const defaultDispatchTimeout = 10 * time.Second

// Router orchestrates the full pipeline for one request: resolve location,
// validate, filter eligible gateways, select, dispatch, normalize. It never
// returns an error; every outcome, including panics, becomes a Result so the
// HTTP layer has exactly one response shape.
type Router struct {
	Registry        *gateway.Registry
	Geo             geo.Resolver
	FX              fx.Converter
	Bus             *events.Bus
	Validator       Validator
	Filter          Filter
	Selector        Selector
	Breakers        map[gateway.ID]*resilience.Breaker
	DispatchTimeout time.Duration
	Logger          zerolog.Logger
}

// NewRouter wires a Router from its collaborators using the registry's
// capability table for filtering and selection.
func NewRouter(reg *gateway.Registry, resolver geo.Resolver, converter fx.Converter, bus *events.Bus, breakers map[gateway.ID]*resilience.Breaker, timeout time.Duration, logger zerolog.Logger) *Router {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	table := reg.Capabilities()
	return &Router{
		Registry:        reg,
		Geo:             resolver,
		FX:              converter,
		Bus:             bus,
		Validator:       Validator{Geo: resolver},
		Filter:          Filter{Table: table},
		Selector:        Selector{Table: table, Logger: logger},
		Breakers:        breakers,
		DispatchTimeout: timeout,
		Logger:          logger,
	}
}

// ProcessPayment routes one payment request end to end.
func (r *Router) ProcessPayment(ctx context.Context, req PaymentRequest) (result Result) {
	txID := NewTransactionID(OpPayment)
	ctx, span := r.startSpan(ctx, "routing.ProcessPayment", txID)
	defer span.End()
	defer r.recoverToFailure(ctx, OpPayment, txID, req.Amount, req.Currency, &result)

	loc := r.resolveLocation(ctx, geo.Query{
		IP:       req.IPAddress,
		Headers:  req.Headers,
		Country:  req.Country,
		Currency: req.Currency,
	})
	span.SetAttributes(attribute.String("routing.region", string(loc.Region)))

	if err := r.Validator.Payment(req, loc); err != nil {
		return r.rejected(ctx, OpPayment, txID, req.Amount, req.Currency, loc, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	amountMinor := MinorUnits(req.Amount, currency)
	candidates := r.Filter.Eligible(loc.Region, currency, OpPayment, amountMinor)
	selected, fellBack := r.Selector.Select(candidates)
	span.SetAttributes(
		attribute.String("routing.gateway", string(selected)),
		attribute.Bool("routing.fell_back", fellBack),
	)
	if fellBack {
		r.noteFallback(ctx, OpPayment, txID, loc, currency)
	}

	intent := gateway.PaymentIntent{
		TransactionID:  txID,
		IdempotencyKey: common.IdempotencyKeyFromContext(ctx),
		PayerID:        req.PayerID,
		AmountMinor:    amountMinor,
		Currency:       currency,
		Method:         req.PaymentMethod,
		Description:    req.Description,
		ReturnURL:      req.ReturnURL,
		CancelURL:      req.CancelURL,
		Metadata:       req.Metadata,
	}
	if fellBack {
		r.convertPaymentIntent(ctx, req, &intent)
	}

	adapter, dispatchErr := r.adapterFor(selected)
	var res gateway.PaymentResult
	if dispatchErr == nil {
		res, dispatchErr = r.dispatchPayment(ctx, adapter, intent)
	}
	if dispatchErr != nil {
		return r.dispatchFailed(ctx, OpPayment, txID, req.Amount, currency, loc, selected, fellBack, dispatchErr)
	}

	result = NormalizePayment(selected, intent, res, loc)
	result.FellBack = fellBack
	r.finish(ctx, result, amountMinor)
	return result
}

// ProcessPayout routes one payout request end to end.
func (r *Router) ProcessPayout(ctx context.Context, req PayoutRequest) (result Result) {
	txID := NewTransactionID(OpPayout)
	ctx, span := r.startSpan(ctx, "routing.ProcessPayout", txID)
	defer span.End()
	defer r.recoverToFailure(ctx, OpPayout, txID, req.Amount, req.Currency, &result)

	loc := r.resolveLocation(ctx, geo.Query{
		IP:       req.IPAddress,
		Headers:  req.Headers,
		Country:  req.Country,
		Currency: req.Currency,
	})
	span.SetAttributes(attribute.String("routing.region", string(loc.Region)))

	if err := r.Validator.Payout(req, loc); err != nil {
		return r.rejected(ctx, OpPayout, txID, req.Amount, req.Currency, loc, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	amountMinor := MinorUnits(req.Amount, currency)
	candidates := r.Filter.Eligible(loc.Region, currency, OpPayout, amountMinor)
	selected, fellBack := r.Selector.Select(candidates)
	span.SetAttributes(
		attribute.String("routing.gateway", string(selected)),
		attribute.Bool("routing.fell_back", fellBack),
	)
	if fellBack {
		r.noteFallback(ctx, OpPayout, txID, loc, currency)
	}

	order := gateway.PayoutOrder{
		TransactionID:  txID,
		IdempotencyKey: common.IdempotencyKeyFromContext(ctx),
		RecipientID:    req.RecipientID,
		AmountMinor:    amountMinor,
		Currency:       currency,
		BankAccount:    req.BankAccount,
		PayoutEmail:    req.PayoutEmail,
		Description:    req.Description,
		Metadata:       req.Metadata,
	}

	adapter, dispatchErr := r.adapterFor(selected)
	var res gateway.PayoutResult
	if dispatchErr == nil {
		res, dispatchErr = r.dispatchPayout(ctx, adapter, order)
	}
	if dispatchErr != nil {
		return r.dispatchFailed(ctx, OpPayout, txID, req.Amount, currency, loc, selected, fellBack, dispatchErr)
	}

	result = NormalizePayout(selected, order, res, loc)
	result.FellBack = fellBack
	r.finish(ctx, result, amountMinor)
	return result
}

func (r *Router) resolveLocation(ctx context.Context, q geo.Query) geo.Location {
	if r.Geo == nil {
		return geo.Location{Region: geo.RegionDefault}
	}
	loc, err := r.Geo.Resolve(ctx, q)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("geo resolution failed, using default region")
		return geo.Location{Region: geo.RegionDefault}
	}
	return loc
}

// convertPaymentIntent swaps the intent to a currency the fallback gateway
// accepts when it cannot take the requested one. The conversion is advisory:
// on any failure the intent is dispatched unchanged and the gateway decides.
func (r *Router) convertPaymentIntent(ctx context.Context, req PaymentRequest, intent *gateway.PaymentIntent) {
	adapter, ok := r.Registry.Adapter(gateway.Fallback)
	if !ok || r.FX == nil || adapter.IsCurrencySupported(intent.Currency) {
		return
	}
	conv, err := r.FX.Convert(ctx, req.Amount, intent.Currency, "USD")
	if err != nil {
		r.Logger.Warn().Err(err).
			Str("currency", intent.Currency).
			Msg("fx conversion unavailable, dispatching original currency")
		return
	}
	meta := make(map[string]string, len(intent.Metadata)+3)
	for k, v := range intent.Metadata {
		meta[k] = v
	}
	meta["original_amount"] = req.Amount.String()
	meta["original_currency"] = intent.Currency
	meta["fx_rate"] = conv.Rate.String()
	intent.Metadata = meta
	intent.AmountMinor = MinorUnits(conv.Amount, "USD")
	intent.Currency = "USD"
}

func (r *Router) adapterFor(id gateway.ID) (gateway.Adapter, error) {
	adapter, ok := r.Registry.Adapter(id)
	if !ok {
		return nil, common.NewAppError(common.CodeGatewayNotConfigured,
			fmt.Sprintf("gateway %s is not configured", id),
			http.StatusServiceUnavailable, nil)
	}
	return adapter, nil
}

func (r *Router) dispatchPayment(ctx context.Context, adapter gateway.Adapter, intent gateway.PaymentIntent) (gateway.PaymentResult, error) {
	id := adapter.ID()
	breaker := r.Breakers[id]
	if breaker != nil && !breaker.Allow(ctx) {
		return gateway.PaymentResult{}, common.NewAppError(common.CodeGatewayUnavailable,
			fmt.Sprintf("gateway %s is temporarily unavailable", id),
			http.StatusServiceUnavailable, resilience.ErrOpenCircuit)
	}

	dctx, cancel := context.WithTimeout(ctx, r.dispatchTimeout())
	defer cancel()

	start := time.Now()
	res, err := adapter.CreatePayment(dctx, intent)
	r.observeDispatch(OpPayment, id, start)
	if breaker != nil {
		breaker.Report(ctx, err == nil)
	}
	if err != nil {
		return gateway.PaymentResult{}, r.classifyDispatchError(dctx, id, res.ErrorCode, res.ErrorMessage, err)
	}
	return res, nil
}

func (r *Router) dispatchPayout(ctx context.Context, adapter gateway.Adapter, order gateway.PayoutOrder) (gateway.PayoutResult, error) {
	id := adapter.ID()
	breaker := r.Breakers[id]
	if breaker != nil && !breaker.Allow(ctx) {
		return gateway.PayoutResult{}, common.NewAppError(common.CodeGatewayUnavailable,
			fmt.Sprintf("gateway %s is temporarily unavailable", id),
			http.StatusServiceUnavailable, resilience.ErrOpenCircuit)
	}

	dctx, cancel := context.WithTimeout(ctx, r.dispatchTimeout())
	defer cancel()

	start := time.Now()
	res, err := adapter.CreatePayout(dctx, order)
	r.observeDispatch(OpPayout, id, start)
	if breaker != nil {
		breaker.Report(ctx, err == nil)
	}
	if err != nil {
		return gateway.PayoutResult{}, r.classifyDispatchError(dctx, id, res.ErrorCode, res.ErrorMessage, err)
	}
	return res, nil
}

func (r *Router) dispatchTimeout() time.Duration {
	if r.DispatchTimeout > 0 {
		return r.DispatchTimeout
	}
	return defaultDispatchTimeout
}

// classifyDispatchError folds an adapter error into an AppError. The code
// and message reported alongside the error by the adapter, when present,
// take precedence over the generic classification.
func (r *Router) classifyDispatchError(ctx context.Context, id gateway.ID, code, message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return common.NewAppError(common.CodeGatewayTimeout,
			fmt.Sprintf("gateway %s did not respond in time", id),
			http.StatusGatewayTimeout, err)
	}
	if errors.Is(err, gateway.ErrUnsupportedOperation) {
		if strings.TrimSpace(code) == "" {
			code = common.CodeGatewayUnavailable
		}
		if strings.TrimSpace(message) == "" {
			message = fmt.Sprintf("gateway %s does not support this operation", id)
		}
		return common.NewAppError(code, message, http.StatusServiceUnavailable, err)
	}
	return common.NewAppError(strings.ToUpper(string(id))+"_ERROR", err.Error(),
		http.StatusBadGateway, err)
}

// rejected synthesizes the failure result for requests that never reach a
// gateway. The transaction id is still returned so callers can correlate.
func (r *Router) rejected(ctx context.Context, op Operation, txID string, amount decimal.Decimal, currency string, loc geo.Location, err error) Result {
	code := common.ErrorCode(err, common.CodeBadRequest)
	if obs.RouteValidationFailures != nil {
		obs.RouteValidationFailures.WithLabelValues(string(op), code).Inc()
	}
	r.Logger.Info().
		Str("transaction_id", txID).
		Str("operation", string(op)).
		Str("code", code).
		Msg("request rejected by validation")

	result := failureResult(op, txID, amount, currency, loc, code, errorMessage(err))
	r.finish(ctx, result, 0)
	return result
}

func (r *Router) dispatchFailed(ctx context.Context, op Operation, txID string, amount decimal.Decimal, currency string, loc geo.Location, id gateway.ID, fellBack bool, err error) Result {
	code := common.ErrorCode(err, strings.ToUpper(string(id))+"_ERROR")
	result := failureResult(op, txID, amount, currency, loc, code, errorMessage(err))
	result.Gateway = id
	result.FellBack = fellBack
	r.Logger.Error().Err(err).
		Str("transaction_id", txID).
		Str("operation", string(op)).
		Str("gateway", string(id)).
		Str("code", code).
		Msg("gateway dispatch failed")
	r.finish(ctx, result, 0)
	return result
}

func (r *Router) recoverToFailure(ctx context.Context, op Operation, txID string, amount decimal.Decimal, currency string, result *Result) {
	rec := recover()
	if rec == nil {
		return
	}
	r.Logger.Error().
		Str("transaction_id", txID).
		Str("operation", string(op)).
		Interface("panic", rec).
		Msg("routing pipeline panicked")
	*result = failureResult(op, txID, amount, currency, geo.Location{Region: geo.RegionDefault},
		common.CodeInternal, "internal processing error")
	r.finish(ctx, *result, 0)
}

func failureResult(op Operation, txID string, amount decimal.Decimal, currency string, loc geo.Location, code, message string) Result {
	return Result{
		Success:       false,
		Operation:     op,
		TransactionID: txID,
		Status:        StatusFailed,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(currency)),
		Region:        loc.Region,
		Error:         message,
		ErrorCode:     code,
		Location:      loc,
	}
}

// errorMessage prefers the caller-facing AppError message over the wrapped
// low-level error text.
func errorMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

func (r *Router) noteFallback(ctx context.Context, op Operation, txID string, loc geo.Location, currency string) {
	if obs.RouteFallbackTotal != nil {
		obs.RouteFallbackTotal.WithLabelValues(string(op)).Inc()
	}
	r.Logger.Warn().
		Str("transaction_id", txID).
		Str("operation", string(op)).
		Str("region", string(loc.Region)).
		Str("currency", currency).
		Str("gateway", string(gateway.Fallback)).
		Msg("no eligible gateway for request, falling back")
	r.emit(ctx, events.TopicRoutingFallback, txID, map[string]string{
		"operation": string(op),
		"region":    string(loc.Region),
		"currency":  currency,
		"gateway":   string(gateway.Fallback),
	})
}

// finish handles the per-request epilogue shared by all outcomes: counters,
// terminal event, ledger entry via the bus.
func (r *Router) finish(ctx context.Context, result Result, amountMinor int64) {
	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	if obs.RouteRequestsTotal != nil {
		gw := string(result.Gateway)
		if gw == "" {
			gw = "none"
		}
		obs.RouteRequestsTotal.WithLabelValues(string(result.Operation), gw, outcome).Inc()
	}

	topic := events.TopicPaymentFailed
	switch {
	case result.Operation == OpPayment && result.Success:
		topic = events.TopicPaymentCompleted
	case result.Operation == OpPayout && result.Success:
		topic = events.TopicPayoutCompleted
	case result.Operation == OpPayout:
		topic = events.TopicPayoutFailed
	}
	r.emit(ctx, topic, result.TransactionID, ledger.Entry{
		TransactionID: result.TransactionID,
		Operation:     string(result.Operation),
		Gateway:       string(result.Gateway),
		Status:        string(result.Status),
		Success:       result.Success,
		AmountMinor:   amountMinor,
		Currency:      result.Currency,
		Region:        string(result.Region),
		ErrorCode:     result.ErrorCode,
		FellBack:      result.FellBack,
	})
}

func (r *Router) emit(ctx context.Context, topic, txID string, payload any) {
	if r.Bus == nil {
		return
	}
	if _, err := r.Bus.Emit(ctx, topic, txID, payload); err != nil {
		r.Logger.Warn().Err(err).Str("topic", topic).Msg("event emission failed")
	}
}

func (r *Router) observeDispatch(op Operation, id gateway.ID, start time.Time) {
	if obs.DispatchDuration == nil {
		return
	}
	obs.DispatchDuration.WithLabelValues(string(op), string(id)).
		Observe(float64(time.Since(start)) / float64(time.Millisecond))
}

func (r *Router) startSpan(ctx context.Context, name, txID string) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/noah-isme/backend-pay/internal/routing")
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("routing.transaction_id", txID),
	))
	return ctx, span
}
