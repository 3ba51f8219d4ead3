package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FlutterwaveAdapter implements the Adapter interface for the cross-border
// processor focused on African and Latin American corridors. Supports both
// collections (payments) and disbursements (payouts).
type FlutterwaveAdapter struct {
	SecretKey string
	BaseURL   string
}

var flutterwaveCurrencies = map[string]AmountLimits{
	"NGN": {Min: 100, Max: 5_000_000_000},
	"KES": {Min: 100, Max: 1_000_000_000},
	"ZAR": {Min: 100, Max: 1_000_000_000},
	"GHS": {Min: 100, Max: 1_000_000_000},
	"BRL": {Min: 100, Max: 1_000_000_000},
	"MXN": {Min: 100, Max: 1_000_000_000},
	"USD": {Min: 100, Max: 100_000_000},
}

// ID returns the gateway identifier.
func (FlutterwaveAdapter) ID() ID { return Flutterwave }

// CreatePayment initiates a collection charge.
func (f FlutterwaveAdapter) CreatePayment(_ context.Context, intent PaymentIntent) (PaymentResult, error) {
	if strings.TrimSpace(intent.TransactionID) == "" {
		return PaymentResult{}, errors.New("flutterwave: transaction id is required")
	}
	if !f.IsCurrencySupported(intent.Currency) {
		return PaymentResult{
			Success:      false,
			NativeStatus: "failed",
			AmountMinor:  intent.AmountMinor,
			Currency:     strings.ToUpper(intent.Currency),
			ErrorCode:    "ERR_CURRENCY",
			ErrorMessage: fmt.Sprintf("currency %s not enabled on this account", intent.Currency),
		}, nil
	}
	return PaymentResult{
		Success:      true,
		ProviderRef:  "flw-" + shortRef(f.SecretKey, intent.TransactionID, intent.IdempotencyKey),
		NativeStatus: "successful",
		AmountMinor:  intent.AmountMinor,
		Currency:     strings.ToUpper(intent.Currency),
		Metadata: map[string]string{
			"processor_response": "Approved",
		},
	}, nil
}

// CreatePayout initiates a disbursement to a bank account or mobile wallet.
func (f FlutterwaveAdapter) CreatePayout(_ context.Context, order PayoutOrder) (PayoutResult, error) {
	if strings.TrimSpace(order.TransactionID) == "" {
		return PayoutResult{}, errors.New("flutterwave: transaction id is required")
	}
	if !f.IsCurrencySupported(order.Currency) {
		return PayoutResult{
			Success:      false,
			NativeStatus: "failed",
			AmountMinor:  order.AmountMinor,
			Currency:     strings.ToUpper(order.Currency),
			ErrorCode:    "ERR_CURRENCY",
			ErrorMessage: fmt.Sprintf("currency %s not enabled on this account", order.Currency),
		}, nil
	}
	return PayoutResult{
		Success:      true,
		ProviderRef:  "flw-tf-" + shortRef(f.SecretKey, order.TransactionID, order.IdempotencyKey),
		NativeStatus: "new",
		AmountMinor:  order.AmountMinor,
		Currency:     strings.ToUpper(order.Currency),
	}, nil
}

// IsCurrencySupported reports corridor currency coverage.
func (FlutterwaveAdapter) IsCurrencySupported(currency string) bool {
	_, ok := flutterwaveCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// AmountLimits returns the per-currency disbursement bounds in minor units.
func (FlutterwaveAdapter) AmountLimits(currency string) AmountLimits {
	return flutterwaveCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
}
