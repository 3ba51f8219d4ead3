package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// StripeAdapter implements the Adapter interface for a card-network processor
// with PaymentIntent/Transfer style semantics. It is the universal fallback
// gateway, so its currency coverage is the broadest of the fleet.
//
// The integration synthesises deterministic references instead of performing
// network calls; the shape and status vocabulary match the real API so the
// rest of the flow exercises identical paths.
type StripeAdapter struct {
	SecretKey string
	BaseURL   string
}

var stripeCurrencies = map[string]AmountLimits{
	"USD": {Min: 50, Max: 99_999_999},
	"EUR": {Min: 50, Max: 99_999_999},
	"GBP": {Min: 30, Max: 99_999_999},
	"INR": {Min: 50, Max: 99_999_999},
	"JPY": {Min: 50, Max: 99_999_999},
	"CAD": {Min: 50, Max: 99_999_999},
	"AUD": {Min: 50, Max: 99_999_999},
	"SGD": {Min: 50, Max: 99_999_999},
	"MXN": {Min: 10_00, Max: 99_999_999},
	"BRL": {Min: 50, Max: 99_999_999},
}

// ID returns the gateway identifier.
func (StripeAdapter) ID() ID { return Stripe }

// CreatePayment opens a payment intent and confirms it immediately.
func (s StripeAdapter) CreatePayment(_ context.Context, intent PaymentIntent) (PaymentResult, error) {
	if strings.TrimSpace(intent.TransactionID) == "" {
		return PaymentResult{}, errors.New("stripe: transaction id is required")
	}
	if !s.IsCurrencySupported(intent.Currency) {
		return PaymentResult{
			Success:      false,
			NativeStatus: "payment_failed",
			AmountMinor:  intent.AmountMinor,
			Currency:     strings.ToUpper(intent.Currency),
			ErrorCode:    "currency_not_supported",
			ErrorMessage: fmt.Sprintf("currency %s is not supported", intent.Currency),
		}, nil
	}
	ref := "pi_" + s.reference(intent.TransactionID, intent.IdempotencyKey)
	return PaymentResult{
		Success:      true,
		ProviderRef:  ref,
		NativeStatus: "succeeded",
		AmountMinor:  intent.AmountMinor,
		Currency:     strings.ToUpper(intent.Currency),
		Metadata: map[string]string{
			"client_secret": ref + "_secret",
		},
	}, nil
}

// CreatePayout creates a transfer to the recipient's connected account.
func (s StripeAdapter) CreatePayout(_ context.Context, order PayoutOrder) (PayoutResult, error) {
	if strings.TrimSpace(order.TransactionID) == "" {
		return PayoutResult{}, errors.New("stripe: transaction id is required")
	}
	if !s.IsCurrencySupported(order.Currency) {
		return PayoutResult{
			Success:      false,
			NativeStatus: "failed",
			AmountMinor:  order.AmountMinor,
			Currency:     strings.ToUpper(order.Currency),
			ErrorCode:    "currency_not_supported",
			ErrorMessage: fmt.Sprintf("currency %s is not supported", order.Currency),
		}, nil
	}
	return PayoutResult{
		Success:      true,
		ProviderRef:  "po_" + s.reference(order.TransactionID, order.IdempotencyKey),
		NativeStatus: "pending",
		AmountMinor:  order.AmountMinor,
		Currency:     strings.ToUpper(order.Currency),
	}, nil
}

// IsCurrencySupported reports card-network currency coverage.
func (StripeAdapter) IsCurrencySupported(currency string) bool {
	_, ok := stripeCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// AmountLimits returns the per-currency charge bounds in minor units.
func (StripeAdapter) AmountLimits(currency string) AmountLimits {
	return stripeCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
}

func (s StripeAdapter) reference(txID, idemKey string) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(s.SecretKey)))
	mac.Write([]byte(txID))
	if key := strings.TrimSpace(idemKey); key != "" {
		mac.Write([]byte(key))
	}
	return hex.EncodeToString(mac.Sum(nil))[:24]
}
