package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RazorpayAdapter implements the Adapter interface for the India-local
// processor. Payments only; the payout product (RazorpayX) is a separate
// integration this service does not carry.
type RazorpayAdapter struct {
	KeyID     string
	KeySecret string
}

// ID returns the gateway identifier.
func (RazorpayAdapter) ID() ID { return Razorpay }

// CreatePayment creates and captures an INR payment.
func (r RazorpayAdapter) CreatePayment(_ context.Context, intent PaymentIntent) (PaymentResult, error) {
	if strings.TrimSpace(intent.TransactionID) == "" {
		return PaymentResult{}, errors.New("razorpay: transaction id is required")
	}
	if !r.IsCurrencySupported(intent.Currency) {
		return PaymentResult{
			Success:      false,
			NativeStatus: "failed",
			AmountMinor:  intent.AmountMinor,
			Currency:     strings.ToUpper(intent.Currency),
			ErrorCode:    "BAD_REQUEST_ERROR",
			ErrorMessage: fmt.Sprintf("currency %s is not supported", intent.Currency),
		}, nil
	}
	return PaymentResult{
		Success:      true,
		ProviderRef:  "pay_" + shortRef(r.KeySecret, intent.TransactionID, intent.IdempotencyKey),
		NativeStatus: "captured",
		AmountMinor:  intent.AmountMinor,
		Currency:     "INR",
		Metadata: map[string]string{
			"method": defaultMethod(intent.Method, "upi"),
		},
	}, nil
}

// CreatePayout reports the unsupported operation; routing should never select
// razorpay for payouts, but the fallback policy can still land here.
func (RazorpayAdapter) CreatePayout(_ context.Context, order PayoutOrder) (PayoutResult, error) {
	return PayoutResult{
		Success:      false,
		NativeStatus: "failed",
		AmountMinor:  order.AmountMinor,
		Currency:     strings.ToUpper(order.Currency),
		ErrorCode:    "PAYOUTS_NOT_ENABLED",
		ErrorMessage: "payouts are not enabled for this account",
	}, ErrUnsupportedOperation
}

// IsCurrencySupported reports INR-only coverage.
func (RazorpayAdapter) IsCurrencySupported(currency string) bool {
	return strings.ToUpper(strings.TrimSpace(currency)) == "INR"
}

// AmountLimits returns the INR charge bounds in paise.
func (r RazorpayAdapter) AmountLimits(currency string) AmountLimits {
	if !r.IsCurrencySupported(currency) {
		return AmountLimits{}
	}
	return AmountLimits{Min: 100, Max: 50_000_000}
}

func defaultMethod(method, fallback string) string {
	if trimmed := strings.TrimSpace(method); trimmed != "" {
		return trimmed
	}
	return fallback
}
