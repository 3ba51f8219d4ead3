package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// WiseAdapter implements the Adapter interface for the cross-border transfer
// provider. Payouts only; acquiring is not part of the product.
type WiseAdapter struct {
	APIToken string
	Profile  string
}

var wiseCurrencies = map[string]AmountLimits{
	"USD": {Min: 100, Max: 100_000_000},
	"EUR": {Min: 100, Max: 100_000_000},
	"GBP": {Min: 100, Max: 100_000_000},
	"INR": {Min: 100, Max: 100_000_000},
	"CAD": {Min: 100, Max: 100_000_000},
	"AUD": {Min: 100, Max: 100_000_000},
	"SGD": {Min: 100, Max: 100_000_000},
}

// ID returns the gateway identifier.
func (WiseAdapter) ID() ID { return Wise }

// CreatePayment reports the unsupported operation.
func (WiseAdapter) CreatePayment(_ context.Context, intent PaymentIntent) (PaymentResult, error) {
	return PaymentResult{
		Success:      false,
		NativeStatus: "cancelled",
		AmountMinor:  intent.AmountMinor,
		Currency:     strings.ToUpper(intent.Currency),
		ErrorCode:    "OPERATION_NOT_SUPPORTED",
		ErrorMessage: "payments are not supported, only transfers",
	}, ErrUnsupportedOperation
}

// CreatePayout funds a transfer to the bank account or registered email.
func (w WiseAdapter) CreatePayout(_ context.Context, order PayoutOrder) (PayoutResult, error) {
	if strings.TrimSpace(order.TransactionID) == "" {
		return PayoutResult{}, errors.New("wise: transaction id is required")
	}
	if !w.IsCurrencySupported(order.Currency) {
		return PayoutResult{
			Success:      false,
			NativeStatus: "funds_refunded",
			AmountMinor:  order.AmountMinor,
			Currency:     strings.ToUpper(order.Currency),
			ErrorCode:    "CURRENCY_NOT_AVAILABLE",
			ErrorMessage: "target currency is not available for transfers",
		}, nil
	}
	status := "processing"
	if order.BankAccount != nil {
		// bank destinations fund synchronously in the sandbox flow
		status = "outgoing_payment_sent"
	}
	return PayoutResult{
		Success:      true,
		ProviderRef:  "transfer-" + shortRef(w.APIToken, order.TransactionID, order.IdempotencyKey),
		NativeStatus: status,
		AmountMinor:  order.AmountMinor,
		Currency:     strings.ToUpper(order.Currency),
	}, nil
}

// IsCurrencySupported reports transfer currency coverage.
func (WiseAdapter) IsCurrencySupported(currency string) bool {
	_, ok := wiseCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// AmountLimits returns the per-currency transfer bounds in minor units.
func (WiseAdapter) AmountLimits(currency string) AmountLimits {
	return wiseCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
}

// shortRef derives a deterministic provider reference from the transaction
// id and idempotency key, so replays with the same key produce the same ref.
func shortRef(secret, txID, idemKey string) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	mac.Write([]byte(txID))
	if key := strings.TrimSpace(idemKey); key != "" {
		mac.Write([]byte(key))
	}
	return hex.EncodeToString(mac.Sum(nil))[:14]
}
